package eth

import (
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

const (
	nativeTransferGasLimit = uint64(21000)
	erc20TransferGasLimit  = uint64(90000) // fallback when estimation fails
)

// Transfer signs and broadcasts a native or ERC20 transfer. It fails
// fast on an invalid amount and never retries internally, retry policy
// belongs to the settlement layer.
func (b *Adapter) Transfer(args *tokens.TransferArgs) *tokens.BroadcastResult {
	if err := tokens.CheckTransferAmount(args.AmountInUnit); err != nil {
		return &tokens.BroadcastResult{Status: false, Message: err.Error()}
	}

	key, err := b.privateKey(args.Wallet)
	if err != nil {
		log.Error("evm recover signing key failed", "chainID", b.Desc.ChainID, "err", err)
		return &tokens.BroadcastResult{Status: false, Message: "recover signing key failed"}
	}

	client, err := b.dial()
	if err != nil {
		return &tokens.BroadcastResult{Status: false, Message: "rpc dial failed"}
	}
	defer client.Close()

	ctx, cancel := rpcContext()
	defer cancel()

	sender := common.HexToAddress(args.Wallet.Address)
	receiver := common.HexToAddress(args.ReceiverAddress)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return &tokens.BroadcastResult{Status: false, Message: "get chain id failed"}
	}
	nonce, err := client.PendingNonceAt(ctx, sender)
	if err != nil {
		return &tokens.BroadcastResult{Status: false, Message: "get nonce failed"}
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return &tokens.BroadcastResult{Status: false, Message: "get gas price failed"}
	}

	var rawTx *ethtypes.Transaction
	if args.Token.IsNative {
		value := tokens.ToBaseUnits(args.AmountInUnit, args.Token.Decimals)
		rawTx = ethtypes.NewTransaction(nonce, receiver, value, nativeTransferGasLimit, gasPrice, nil)
	} else {
		amount := tokens.ToBaseUnits(args.AmountInUnit, args.Token.Decimals)
		input, err := erc20ABI.Pack("transfer", receiver, amount)
		if err != nil {
			return &tokens.BroadcastResult{Status: false, Message: "pack transfer failed"}
		}
		contract := common.HexToAddress(args.Token.Address)
		gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{From: sender, To: &contract, Data: input})
		if err != nil {
			gasLimit = erc20TransferGasLimit
		}
		rawTx = ethtypes.NewTransaction(nonce, contract, nil, gasLimit, gasPrice, input)
	}

	signedTx, err := ethtypes.SignTx(rawTx, ethtypes.LatestSignerForChainID(chainID), key)
	if err != nil {
		return &tokens.BroadcastResult{Status: false, Message: "sign transaction failed"}
	}
	if err := client.SendTransaction(ctx, signedTx); err != nil {
		log.Error("evm broadcast failed", "chainID", b.Desc.ChainID, "err", err)
		return &tokens.BroadcastResult{Status: false, Message: "broadcast failed"}
	}

	txHash := signedTx.Hash().Hex()
	log.Info("evm transfer broadcast",
		"chainID", b.Desc.ChainID, "token", args.Token.Symbol,
		"amount", args.AmountInUnit, "receiver", args.ReceiverAddress, "txHash", txHash)
	return &tokens.BroadcastResult{Status: true, TxHash: txHash}
}
