package ton

import (
	"crypto/ed25519"
	"encoding/base64"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/Jayke770/stablebot-worker/tokens"
)

func testAddresses(t *testing.T) (sender, receiver string) {
	t.Helper()
	senderKey, err := keyFromMnemonic(devMnemonic)
	require.NoError(t, err)
	receiverSeed := make([]byte, ed25519.SeedSize)
	receiverSeed[0] = 1
	receiverKey := ed25519.NewKeyFromSeed(receiverSeed)
	return walletAddress(senderKey.Public().(ed25519.PublicKey)).String(),
		walletAddress(receiverKey.Public().(ed25519.PublicKey)).String()
}

func TestCanonicalizeJettonNotification(t *testing.T) {
	adapter := New(testDesc)
	sender, receiver := testAddresses(t)
	senderAddr, err := parseAddress(sender)
	require.NoError(t, err)

	body := cell.BeginCell().
		MustStoreUInt(opJettonTransferNotification, 32).
		MustStoreUInt(7, 64).
		MustStoreBigCoins(big.NewInt(123456789)). // 123.456789 with 6 decimals
		MustStoreAddr(senderAddr).
		EndCell()

	tx := &rawTransaction{TotalFees: "3000000"}
	tx.InMsg.Source = sender
	tx.InMsg.Destination = receiver
	tx.InMsg.Content.Body = base64.StdEncoding.EncodeToString(body.ToBOC())

	record := adapter.canonicalize(tx, "deadbeef")
	require.NotNil(t, record)
	assert.True(t, record.Success)
	assert.Equal(t, "deadbeef", record.TxHash)
	assert.Equal(t, normalizeAddress(sender), record.FromAddress)
	assert.Equal(t, normalizeAddress(receiver), record.ToAddress)
	assert.InDelta(t, 123.456789, record.TokenAmount, 1e-9)
	assert.InDelta(t, 0.003, record.FeeInNative, 1e-12)
}

func TestCanonicalizeOutgoingJettonTransfer(t *testing.T) {
	adapter := New(testDesc)
	sender, receiver := testAddresses(t)
	receiverAddr, err := parseAddress(receiver)
	require.NoError(t, err)
	senderAddr, err := parseAddress(sender)
	require.NoError(t, err)

	body := jettonTransferBody(big.NewInt(5_000_000), receiverAddr, senderAddr)
	tx := &rawTransaction{TotalFees: "4500000"}
	tx.OutMsgs = []rawMessage{{Source: sender, Destination: "0:00"}}
	tx.OutMsgs[0].Content.Body = base64.StdEncoding.EncodeToString(body.ToBOC())

	record := adapter.canonicalize(tx, "cafe")
	require.NotNil(t, record)
	assert.Equal(t, normalizeAddress(sender), record.FromAddress)
	assert.Equal(t, normalizeAddress(receiver), record.ToAddress)
	assert.InDelta(t, 5.0, record.TokenAmount, 1e-9)
}

func TestCanonicalizeNativeTransfer(t *testing.T) {
	adapter := New(testDesc)
	sender, receiver := testAddresses(t)

	tx := &rawTransaction{TotalFees: "2000000"}
	tx.InMsg.Source = sender
	tx.InMsg.Destination = receiver
	tx.InMsg.Value = "1500000000" // 1.5 TON

	record := adapter.canonicalize(tx, "feed")
	require.NotNil(t, record)
	assert.Equal(t, normalizeAddress(sender), record.FromAddress)
	assert.Equal(t, normalizeAddress(receiver), record.ToAddress)
	assert.InDelta(t, 1.5, record.TokenAmount, 1e-12)
	assert.InDelta(t, 0.002, record.FeeInNative, 1e-12)
}

func TestCanonicalizeAbortedTransaction(t *testing.T) {
	adapter := New(testDesc)
	sender, receiver := testAddresses(t)
	senderAddr, err := parseAddress(sender)
	require.NoError(t, err)

	// a deposit notification on a transaction that aborted must not
	// count as a settled transfer
	body := cell.BeginCell().
		MustStoreUInt(opJettonTransferNotification, 32).
		MustStoreUInt(9, 64).
		MustStoreBigCoins(big.NewInt(50_000_000)).
		MustStoreAddr(senderAddr).
		EndCell()

	tx := &rawTransaction{TotalFees: "3000000"}
	tx.Description.Aborted = true
	tx.InMsg.Source = sender
	tx.InMsg.Destination = receiver
	tx.InMsg.Content.Body = base64.StdEncoding.EncodeToString(body.ToBOC())

	record := adapter.canonicalize(tx, "deadbeef")
	require.NotNil(t, record)
	assert.False(t, record.Success)
	assert.Zero(t, record.TokenAmount)
	assert.Empty(t, record.FromAddress)
}

func TestTransactionFailedPhases(t *testing.T) {
	tx := &rawTransaction{}
	assert.False(t, transactionFailed(tx))

	tx.Description.ComputePh = &phaseResult{Skipped: true}
	assert.False(t, transactionFailed(tx), "skipped compute phase is not a failure")

	tx.Description.ComputePh = &phaseResult{Success: false}
	assert.True(t, transactionFailed(tx))

	tx.Description.ComputePh = &phaseResult{Success: true}
	tx.Description.Action = &phaseResult{Success: false}
	assert.True(t, transactionFailed(tx))

	tx.Description.Action = &phaseResult{Success: true}
	assert.False(t, transactionFailed(tx))
}

func TestMatchesTxHashByMessageHash(t *testing.T) {
	txHashRaw := []byte{0xaa, 0xbb, 0xcc}
	msgHashRaw := []byte{0x11, 0x22, 0x33}

	tx := &rawTransaction{Hash: base64.StdEncoding.EncodeToString(txHashRaw)}
	tx.InMsg.Hash = base64.StdEncoding.EncodeToString(msgHashRaw)

	// broadcasting returns the external message hash, the transaction
	// that processes it has a different hash of its own
	assert.True(t, matchesTxHash(tx, "aabbcc"))
	assert.True(t, matchesTxHash(tx, "AABBCC"))
	assert.True(t, matchesTxHash(tx, "112233"))
	assert.False(t, matchesTxHash(tx, "445566"))
}

func TestInternalMessageRoundTrip(t *testing.T) {
	_, receiver := testAddresses(t)
	receiverAddr, err := parseAddress(receiver)
	require.NoError(t, err)

	msg := internalMessage(receiverAddr, big.NewInt(42_000_000_000), nil, false)
	slice := msg.BeginParse()

	head, err := slice.LoadUInt(6)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x10), head)

	dest, err := slice.LoadAddr()
	require.NoError(t, err)
	assert.True(t, sameAddress(receiver, dest.String()))

	amount, err := slice.LoadBigCoins()
	require.NoError(t, err)
	assert.Equal(t, int64(42_000_000_000), amount.Int64())
}

func TestTransferAmountGuard(t *testing.T) {
	adapter := New(testDesc)
	args := &tokens.TransferArgs{
		Wallet: &tokens.Wallet{},
		Token:  &tokens.TokenConfig{IsNative: true},
	}
	for _, amount := range []float64{0, -1, math.NaN()} {
		args.AmountInUnit = amount
		result := adapter.Transfer(args)
		assert.False(t, result.Status)
		assert.Empty(t, result.TxHash)
	}
}

func TestParseMessageBodySkipsComments(t *testing.T) {
	// text comments start with a zero op which is not a jetton op
	comment := cell.BeginCell().MustStoreUInt(0, 32).MustStoreSlice([]byte("hi"), 16).EndCell()
	op, _, ok := parseMessageBody(base64.StdEncoding.EncodeToString(comment.ToBOC()))
	assert.True(t, ok)
	assert.Zero(t, op)

	_, _, ok = parseMessageBody("")
	assert.False(t, ok)
	_, _, ok = parseMessageBody("!!not base64!!")
	assert.False(t, ok)
}
