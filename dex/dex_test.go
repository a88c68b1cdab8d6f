package dex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jayke770/stablebot-worker/params"
	"github.com/Jayke770/stablebot-worker/tokens"
)

func TestStableTokenShortCircuit(t *testing.T) {
	params.SetConfig(&params.WorkerConfig{
		Worker: &params.JobConfig{StableSymbols: []string{"USDT"}},
	})
	client := NewClient(&params.DexConfig{APIAddress: "https://dex.invalid"})

	info, err := client.GetTokenInfo(&tokens.TokenConfig{
		ChainID: "tron",
		Address: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
		Symbol:  "usdt",
	})
	require.NoError(t, err, "stable tokens must not hit the network")
	assert.True(t, info.Status)
	assert.Equal(t, "1", info.PriceUSD)
	assert.InDelta(t, 1.0, info.UnitPrice(), 1e-12)
}

func TestUnitPriceParsing(t *testing.T) {
	assert.InDelta(t, 0.137, (&TokenInfo{PriceUSD: "0.137"}).UnitPrice(), 1e-12)
	assert.Zero(t, (&TokenInfo{PriceUSD: ""}).UnitPrice())
	assert.Zero(t, (&TokenInfo{PriceUSD: "n/a"}).UnitPrice())
}
