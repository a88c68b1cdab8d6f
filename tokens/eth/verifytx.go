package eth

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

// ConfirmTransaction polls for the transaction receipt until it appears
// or the timeout elapses. A reverted receipt is reported as a failed
// record, a missing receipt as nil. The address argument is unused on
// EVM, receipts are looked up directly by hash.
func (b *Adapter) ConfirmTransaction(txHash, _ string) *tokens.TxRecord {
	client, err := b.dial()
	if err != nil {
		log.Warn("evm dial failed", "chainID", b.Desc.ChainID, "err", err)
		return nil
	}
	defer client.Close()

	hash := common.HexToHash(txHash)
	deadline := time.Now().Add(confirmTimeout)
	for time.Now().Before(deadline) {
		receipt, err := client.TransactionReceipt(context.Background(), hash)
		if err == nil && receipt != nil {
			tx, _, err := client.TransactionByHash(context.Background(), hash)
			if err != nil || tx == nil {
				return nil
			}
			if receipt.Status == ethtypes.ReceiptStatusFailed {
				return &tokens.TxRecord{Success: false, TxHash: txHash}
			}
			return b.canonicalize(receipt, tx, func(contract common.Address) int {
				return getTokenDecimals(client, contract)
			})
		}
		time.Sleep(confirmInterval)
	}
	log.Warn("evm confirm timeout", "chainID", b.Desc.ChainID, "txHash", txHash)
	return nil
}

// canonicalize extracts the canonical transfer from a successful
// transaction: the first ERC20 Transfer log when present, the plain
// native transfer otherwise. Fee is effective gas price times gas used.
func (b *Adapter) canonicalize(receipt *ethtypes.Receipt, tx *ethtypes.Transaction, decimalsOf func(common.Address) int) *tokens.TxRecord {
	gasPrice := receipt.EffectiveGasPrice
	if gasPrice == nil {
		gasPrice = tx.GasPrice()
	}
	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(receipt.GasUsed))

	record := &tokens.TxRecord{
		Success:     true,
		TxHash:      receipt.TxHash.Hex(),
		FeeInNative: tokens.FromBaseUnits(fee, b.Desc.NativeDecimals),
	}

	if transferLog := firstTransferLog(receipt.Logs); transferLog != nil {
		decimals := decimalsOf(transferLog.Address)
		record.FromAddress = common.BytesToAddress(transferLog.Topics[1].Bytes()[12:]).Hex()
		record.ToAddress = common.BytesToAddress(transferLog.Topics[2].Bytes()[12:]).Hex()
		record.TokenAmount = tokens.FromBaseUnits(new(big.Int).SetBytes(transferLog.Data), decimals)
		return record
	}

	signer := ethtypes.LatestSignerForChainID(tx.ChainId())
	if sender, err := ethtypes.Sender(signer, tx); err == nil {
		record.FromAddress = sender.Hex()
	}
	if tx.To() != nil {
		record.ToAddress = tx.To().Hex()
	}
	record.TokenAmount = tokens.FromBaseUnits(tx.Value(), b.Desc.NativeDecimals)
	return record
}

func firstTransferLog(logs []*ethtypes.Log) *ethtypes.Log {
	for _, entry := range logs {
		if len(entry.Topics) == 3 && entry.Topics[0] == transferEventTopic {
			return entry
		}
	}
	return nil
}
