package ton

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jayke770/stablebot-worker/tokens"
	"github.com/Jayke770/stablebot-worker/tools"
)

var testDesc = &tokens.ChainDescriptor{
	ChainID:        "ton",
	Name:           "The Open Network",
	Symbol:         "TON",
	Family:         tokens.FamilyTON,
	RPC:            "https://toncenter.example/api/v2/jsonRPC",
	RestAPI:        "https://toncenter.example",
	NativeDecimals: 9,
}

const devMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

func TestDeriveWalletDeterministic(t *testing.T) {
	tools.SetCipherKey("test passphrase")
	adapter := New(testDesc)

	wallet, err := adapter.DeriveWallet(devMnemonic)
	require.NoError(t, err)
	assert.Equal(t, tokens.FamilyTON, wallet.Family)
	assert.True(t, IsValidAddress(wallet.Address))
	assert.NotEqual(t, devMnemonic, wallet.EncryptedMnemonic)

	again, err := adapter.DeriveWallet(devMnemonic)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address, again.Address)

	key, err := adapter.privateKey(wallet)
	require.NoError(t, err)
	assert.Len(t, []byte(key), 64)
}

func TestDeriveWalletRejectsShortMnemonic(t *testing.T) {
	tools.SetCipherKey("test passphrase")
	adapter := New(testDesc)

	_, err := adapter.DeriveWallet("too few words")
	assert.ErrorIs(t, err, tokens.ErrDeriveWallet)
}

func TestAddressForms(t *testing.T) {
	tools.SetCipherKey("test passphrase")
	adapter := New(testDesc)

	wallet, err := adapter.DeriveWallet(devMnemonic)
	require.NoError(t, err)

	friendly, err := parseAddress(wallet.Address)
	require.NoError(t, err)

	raw := fmt.Sprintf("%d:%s", friendly.Workchain(), hex.EncodeToString(friendly.Data()))
	assert.True(t, sameAddress(wallet.Address, raw))
	assert.Equal(t, wallet.Address, normalizeAddress(raw))

	assert.False(t, IsValidAddress("not an address"))
	assert.False(t, sameAddress(wallet.Address, "not an address"))
}

func TestMnemonicWhitespaceInsensitive(t *testing.T) {
	key, err := keyFromMnemonic(devMnemonic)
	require.NoError(t, err)
	padded, err := keyFromMnemonic("  " + devMnemonic + "\n")
	require.NoError(t, err)
	assert.True(t, strings.EqualFold(hex.EncodeToString(key), hex.EncodeToString(padded)))
}
