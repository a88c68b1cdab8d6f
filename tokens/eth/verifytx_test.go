package eth

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jayke770/stablebot-worker/tokens"
)

var testDesc = &tokens.ChainDescriptor{
	ChainID:        "1",
	Name:           "Ethereum",
	Symbol:         "ETH",
	Family:         tokens.FamilyEVM,
	RPC:            "http://localhost:8545",
	NativeDecimals: 18,
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestCanonicalizeTokenTransfer(t *testing.T) {
	adapter := New(testDesc)

	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	usdt := common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")

	// 123.456789 USDT with 6 decimals
	value := big.NewInt(123456789)
	receipt := &ethtypes.Receipt{
		Status:            ethtypes.ReceiptStatusSuccessful,
		TxHash:            common.HexToHash("0xabc1"),
		GasUsed:           60000,
		EffectiveGasPrice: big.NewInt(20000000000), // 20 gwei
		Logs: []*ethtypes.Log{
			{
				Address: usdt,
				Topics: []common.Hash{
					transferEventTopic,
					common.BytesToHash(from.Bytes()),
					common.BytesToHash(to.Bytes()),
				},
				Data: common.LeftPadBytes(value.Bytes(), 32),
			},
		},
	}
	tx := ethtypes.NewTransaction(0, usdt, big.NewInt(0), 60000, big.NewInt(20000000000), nil)

	record := adapter.canonicalize(receipt, tx, func(common.Address) int { return 6 })
	require.NotNil(t, record)
	assert.True(t, record.Success)
	assert.Equal(t, from.Hex(), record.FromAddress)
	assert.Equal(t, to.Hex(), record.ToAddress)
	assert.Equal(t, 123.456789, record.TokenAmount)
	assert.Equal(t, 0.0012, record.FeeInNative) // 60000 * 20 gwei
}

func TestCanonicalizeNativeTransfer(t *testing.T) {
	adapter := New(testDesc)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := crypto.PubkeyToAddress(key.PublicKey)
	receiver := common.HexToAddress("0x3333333333333333333333333333333333333333")

	rawTx := ethtypes.NewTransaction(7, receiver, ether(2), 21000, big.NewInt(10000000000), nil)
	signer := ethtypes.LatestSignerForChainID(big.NewInt(1))
	tx, err := ethtypes.SignTx(rawTx, signer, key)
	require.NoError(t, err)

	receipt := &ethtypes.Receipt{
		Status:            ethtypes.ReceiptStatusSuccessful,
		TxHash:            tx.Hash(),
		GasUsed:           21000,
		EffectiveGasPrice: big.NewInt(10000000000),
	}

	record := adapter.canonicalize(receipt, tx, func(common.Address) int { return 18 })
	require.NotNil(t, record)
	assert.True(t, record.Success)
	assert.Equal(t, sender.Hex(), record.FromAddress)
	assert.Equal(t, receiver.Hex(), record.ToAddress)
	assert.Equal(t, 2.0, record.TokenAmount)
}

func TestGetBalanceNilTokenIsNative(t *testing.T) {
	adapter := New(testDesc)
	// a nil token means the native balance; the unreachable node makes
	// the lookup fail, which must degrade to zero
	assert.Zero(t, adapter.GetBalance("0x1111111111111111111111111111111111111111", nil))
}

func TestTransferAmountGuard(t *testing.T) {
	adapter := New(testDesc)
	wallet := &tokens.Wallet{Address: "0x0", EncryptedMnemonic: "x", Family: tokens.FamilyEVM}
	token := &tokens.TokenConfig{ChainID: "1", Symbol: "ETH", Decimals: 18, IsNative: true}

	for _, amount := range []float64{0, -1, nan()} {
		result := adapter.Transfer(&tokens.TransferArgs{
			Wallet:          wallet,
			Token:           token,
			ReceiverAddress: "0x2222222222222222222222222222222222222222",
			AmountInUnit:    amount,
		})
		require.NotNil(t, result)
		assert.False(t, result.Status)
		assert.Empty(t, result.TxHash)
	}
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}
