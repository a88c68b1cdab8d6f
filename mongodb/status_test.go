package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jayke770/stablebot-worker/tokens"
)

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusPending))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusPending.CanTransitionTo(StatusPending))
}

func TestUserTokenKey(t *testing.T) {
	key := UserTokenKey(12345, "BSC", "0xABCDef")
	assert.Equal(t, "12345-bsc-0xabcdef", key)
}

func TestUserWalletLookup(t *testing.T) {
	user := &MgoUser{
		UserID: 12345,
		Wallets: []*tokens.Wallet{
			{Address: "0xPool", Family: tokens.FamilyEVM},
			{Address: "TPool", Family: tokens.FamilyTRON},
		},
	}
	assert.Equal(t, "TPool", user.Wallet(tokens.FamilyTRON).Address)
	assert.Nil(t, user.Wallet(tokens.FamilyTON))
}

func TestBridgeTokenSnapshotRoundTrip(t *testing.T) {
	snapshot := &MgoBridgeToken{
		ChainID:  "tron",
		Address:  "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
		Symbol:   "USDT",
		Decimals: 6,
	}
	token := snapshot.TokenConfig()
	assert.Equal(t, snapshot.ChainID, token.ChainID)
	assert.Equal(t, snapshot.Address, token.Address)
	assert.Equal(t, snapshot.Decimals, token.Decimals)
	assert.False(t, token.IsNative)
}
