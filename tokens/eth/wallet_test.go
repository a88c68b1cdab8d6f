package eth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jayke770/stablebot-worker/tokens"
	"github.com/Jayke770/stablebot-worker/tools"
)

// the well known hardhat/foundry developer mnemonic and its account #0
const (
	devMnemonic = "test test test test test test test test test test test junk"
	devAddress  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestDeriveWalletDeterministic(t *testing.T) {
	tools.SetCipherKey("test passphrase")
	adapter := New(testDesc)

	wallet, err := adapter.DeriveWallet(devMnemonic)
	require.NoError(t, err)
	assert.Equal(t, devAddress, wallet.Address)
	assert.Equal(t, tokens.FamilyEVM, wallet.Family)
	assert.NotEqual(t, devMnemonic, wallet.EncryptedMnemonic)

	again, err := adapter.DeriveWallet(devMnemonic)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address, again.Address)

	key, err := adapter.privateKey(wallet)
	require.NoError(t, err)
	assert.NotNil(t, key)
}

func TestDeriveWalletRejectsInvalidMnemonic(t *testing.T) {
	tools.SetCipherKey("test passphrase")
	adapter := New(testDesc)

	_, err := adapter.DeriveWallet("definitely not a valid seed phrase")
	assert.Error(t, err)
}
