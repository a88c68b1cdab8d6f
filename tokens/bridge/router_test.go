package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jayke770/stablebot-worker/tokens"
	"github.com/Jayke770/stablebot-worker/tools"
)

func testRouter() *Router {
	return NewRouter([]*tokens.ChainDescriptor{
		{ChainID: "bsc", Name: "BNB Smart Chain", Symbol: "BNB", Family: tokens.FamilyEVM, NativeDecimals: 18},
		{ChainID: "tron", Name: "Tron", Symbol: "TRX", Family: tokens.FamilyTRON, NativeDecimals: 6},
		{ChainID: "ton", Name: "The Open Network", Symbol: "TON", Family: tokens.FamilyTON, NativeDecimals: 9},
		{ChainID: "atari2600", Name: "Bogus", Family: tokens.ChainFamily("console")},
	})
}

func TestRouterChainLookup(t *testing.T) {
	router := testRouter()

	require.NotNil(t, router.GetChain("bsc"))
	assert.Equal(t, "Tron", router.GetChain("TRON").Name)
	assert.Nil(t, router.GetChain("solana"))
	assert.Nil(t, router.GetChain("atari2600"), "unknown families are not registered")
	assert.Len(t, router.AllChains(), 3)
}

func TestRouterUnknownChainPaths(t *testing.T) {
	router := testRouter()

	result := router.Transfer("solana", &tokens.TransferArgs{AmountInUnit: 1})
	require.NotNil(t, result)
	assert.False(t, result.Status)
	assert.Equal(t, tokens.ErrInvalidChain.Error(), result.Message)

	assert.Nil(t, router.ConfirmTransaction("solana", "0xabc", ""))
	assert.Zero(t, router.GetBalance("solana", "0xabc", nil))

	_, err := router.DeriveWallet("solana", "whatever")
	assert.ErrorIs(t, err, tokens.ErrInvalidChain)
}

func TestRouterDerivesPerFamilyWallets(t *testing.T) {
	tools.SetCipherKey("test passphrase")
	router := testRouter()
	mnemonic := "test test test test test test test test test test test junk"

	evmWallet, err := router.DeriveWallet("bsc", mnemonic)
	require.NoError(t, err)
	assert.Equal(t, tokens.FamilyEVM, evmWallet.Family)

	tronWallet, err := router.DeriveWallet("tron", mnemonic)
	require.NoError(t, err)
	assert.Equal(t, tokens.FamilyTRON, tronWallet.Family)
	assert.NotEqual(t, evmWallet.Address, tronWallet.Address)
}
