package tron

import (
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

const contractRetSuccess = "SUCCESS"

// contract types carried in raw_data
const (
	contractTypeTransfer     = "TransferContract"
	contractTypeTriggerSmart = "TriggerSmartContract"
)

// ConfirmTransaction polls the transaction by id until its execution
// result is terminal or the timeout elapses. Token transfers are not
// exposed as decoded events on TRON, the canonical transfer is
// recovered from the raw TriggerSmartContract parameter blob.
func (b *Adapter) ConfirmTransaction(txHash, _ string) *tokens.TxRecord {
	deadline := time.Now().Add(confirmTimeout)
	for time.Now().Before(deadline) {
		tx, err := b.getTransactionByID(txHash)
		if err == nil && len(tx.Ret) > 0 {
			switch ret := tx.Ret[0].ContractRet; {
			case ret == contractRetSuccess:
				info, err := b.getTransactionInfo(txHash)
				if err == nil {
					return b.canonicalize(tx, info)
				}
			case ret != "":
				// terminal on-chain failure (REVERT, OUT_OF_ENERGY, ...)
				log.Warn("tron tx failed", "chainID", b.Desc.ChainID, "txHash", txHash, "ret", ret)
				return &tokens.TxRecord{Success: false, TxHash: txHash}
			}
		}
		time.Sleep(confirmInterval)
	}
	log.Warn("tron confirm timeout", "chainID", b.Desc.ChainID, "txHash", txHash)
	return nil
}

func (b *Adapter) canonicalize(tx *transactionResult, info *transactionInfoResult) *tokens.TxRecord {
	if len(tx.RawData.Contract) == 0 {
		return nil
	}
	contract := tx.RawData.Contract[0]
	value := contract.Parameter.Value

	record := &tokens.TxRecord{
		Success:     true,
		TxHash:      tx.TxID,
		FeeInNative: tokens.FromBaseUnits(big.NewInt(info.Fee), b.Desc.NativeDecimals),
	}

	from, err := HexToBase58(value.OwnerAddress)
	if err != nil {
		return nil
	}
	record.FromAddress = from

	if contract.Type == contractTypeTriggerSmart {
		to, amount, err := decodeTransferParams(value.Data)
		if err != nil {
			log.Warn("tron decode contract params failed", "txHash", tx.TxID, "err", err)
			return nil
		}
		record.ToAddress = to
		record.TokenAmount = tokens.FromBaseUnits(amount, trc20Decimals)
		return record
	}

	to, err := HexToBase58(value.ToAddress)
	if err != nil {
		return nil
	}
	record.ToAddress = to
	record.TokenAmount = tokens.FromBaseUnits(big.NewInt(value.Amount), b.Desc.NativeDecimals)
	return record
}

// decodeTransferParams manually ABI decodes the (address, uint256)
// arguments of a transfer(address,uint256) call from the raw parameter
// blob. The selector prefix is dropped and the word padding reserved
// for it is zeroed before reading the address.
func decodeTransferParams(data string) (toAddress string, amount *big.Int, err error) {
	raw := strings.TrimPrefix(strings.TrimSpace(data), "0x")
	if len(raw)%64 == 8 {
		raw = raw[8:]
	}
	if len(raw) < 128 || len(raw)%64 != 0 {
		return "", nil, tokens.ErrTxNotFound
	}

	addressWord := []byte(raw[:64])
	for i := 0; i < 24; i++ {
		addressWord[i] = '0'
	}
	toAddress, err = HexToBase58("41" + string(addressWord[24:]))
	if err != nil {
		return "", nil, err
	}

	amountBytes, err := hex.DecodeString(raw[64:128])
	if err != nil {
		return "", nil, err
	}
	return toAddress, new(big.Int).SetBytes(amountBytes), nil
}
