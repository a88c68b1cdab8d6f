package tron

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jayke770/stablebot-worker/tokens"
	"github.com/Jayke770/stablebot-worker/tools"
)

var testDesc = &tokens.ChainDescriptor{
	ChainID:        "tron",
	Name:           "Tron",
	Symbol:         "TRX",
	Family:         tokens.FamilyTRON,
	RPC:            "http://localhost:8090",
	NativeDecimals: 6,
}

// mainnet USDT contract and its hex form
const (
	usdtBase58 = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	usdtHex    = "41a614f803b6fd780986a42c78ec9c7f77e6ded13c"
)

func TestAddressRoundTrip(t *testing.T) {
	hexAddr, err := Base58ToHex(usdtBase58)
	require.NoError(t, err)
	assert.Equal(t, usdtHex, hexAddr)

	base58Addr, err := HexToBase58(usdtHex)
	require.NoError(t, err)
	assert.Equal(t, usdtBase58, base58Addr)

	assert.True(t, IsValidAddress(usdtBase58))
	assert.False(t, IsValidAddress("TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6X"))
	assert.False(t, IsValidAddress("0x1111111111111111111111111111111111111111"))
}

func TestDecodeTransferParams(t *testing.T) {
	// transfer(address,uint256) of 25 USDT to the USDT contract address
	amount := big.NewInt(25_000_000)
	blob := "a9059cbb" +
		strings.Repeat("0", 24) + usdtHex[2:] +
		strings.Repeat("0", 64-len(amount.Text(16))) + amount.Text(16)

	to, decoded, err := decodeTransferParams(blob)
	require.NoError(t, err)
	assert.Equal(t, usdtBase58, to)
	assert.Equal(t, 0, amount.Cmp(decoded))

	// selector padding bytes must not leak into the address word
	dirty := []byte(blob)
	dirty[8+22] = 'f'
	dirty[8+23] = 'f'
	to, _, err = decodeTransferParams(string(dirty))
	require.NoError(t, err)
	assert.Equal(t, usdtBase58, to)

	_, _, err = decodeTransferParams("a9059cbb1234")
	assert.Error(t, err)
}

func TestDeriveWalletDeterministic(t *testing.T) {
	tools.SetCipherKey("test passphrase")
	adapter := New(testDesc)

	mnemonic := "test test test test test test test test test test test junk"
	wallet, err := adapter.DeriveWallet(mnemonic)
	require.NoError(t, err)
	assert.Equal(t, tokens.FamilyTRON, wallet.Family)
	assert.True(t, IsValidAddress(wallet.Address))

	again, err := adapter.DeriveWallet(mnemonic)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address, again.Address)
}

func TestGetBalanceNilTokenIsNative(t *testing.T) {
	adapter := New(testDesc)
	// a nil token means the native balance; the unreachable node makes
	// the lookup fail, which must degrade to zero
	assert.Zero(t, adapter.GetBalance("TJRabPrwbZy45sbavfcjinPJC18kjpRTv8", nil))
}

func TestTransferAmountGuard(t *testing.T) {
	tools.SetCipherKey("test passphrase")
	adapter := New(testDesc)
	wallet := &tokens.Wallet{Address: usdtBase58, EncryptedMnemonic: "x", Family: tokens.FamilyTRON}
	token := &tokens.TokenConfig{ChainID: "tron", Symbol: "TRX", Decimals: 6, IsNative: true}

	result := adapter.Transfer(&tokens.TransferArgs{
		Wallet:          wallet,
		Token:           token,
		ReceiverAddress: usdtBase58,
		AmountInUnit:    0,
	})
	require.NotNil(t, result)
	assert.False(t, result.Status)
	assert.Empty(t, result.TxHash)
}
