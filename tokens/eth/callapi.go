package eth

import (
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

// GetBalance returns the native or ERC20 balance in token units. A nil
// token reads the native balance. Balance refresh is best effort: any
// transport or decoding failure yields zero instead of an error,
// callers accept the ambiguity.
func (b *Adapter) GetBalance(address string, token *tokens.TokenConfig) float64 {
	client, err := b.dial()
	if err != nil {
		log.Warn("evm dial failed", "chainID", b.Desc.ChainID, "err", err)
		return 0
	}
	defer client.Close()

	ctx, cancel := rpcContext()
	defer cancel()

	owner := common.HexToAddress(address)
	if token == nil || token.IsNative {
		balance, err := client.BalanceAt(ctx, owner, nil)
		if err != nil {
			log.Warn("evm get balance failed", "chainID", b.Desc.ChainID, "address", address, "err", err)
			return 0
		}
		return tokens.FromBaseUnits(balance, b.Desc.NativeDecimals)
	}

	input, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return 0
	}
	contract := common.HexToAddress(token.Address)
	output, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
	if err != nil || len(output) == 0 {
		log.Warn("evm balanceOf call failed", "chainID", b.Desc.ChainID, "token", token.Symbol, "err", err)
		return 0
	}
	return tokens.FromBaseUnits(new(big.Int).SetBytes(output), token.Decimals)
}

// getTokenDecimals reads decimals() of an ERC20 contract, falling back
// to 18 when the read fails.
func getTokenDecimals(client *ethclient.Client, contract common.Address) int {
	input, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 18
	}
	ctx, cancel := rpcContext()
	defer cancel()
	output, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
	if err != nil || len(output) == 0 {
		return 18
	}
	return int(new(big.Int).SetBytes(output).Int64())
}
