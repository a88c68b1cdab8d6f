package ton

import (
	"encoding/base64"
	"math/big"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

// jetton stable tokens bridged here carry 6 decimals
const jettonDecimals = 6

// ConfirmTransaction polls the account transaction list until the
// given hash shows up or the timeout elapses. TON has no receipt
// lookup by hash, the account address is required to locate the
// transaction. The hash is matched against both the transaction hash
// and the in-message hash, because sending an external message only
// yields the message hash. Returns nil when not found in time.
func (b *Adapter) ConfirmTransaction(txHash, accountAddress string) *tokens.TxRecord {
	deadline := time.Now().Add(confirmTimeout)
	for time.Now().Before(deadline) {
		txs, err := b.getTransactions(accountAddress, 30)
		if err != nil {
			log.Warn("ton get transactions failed", "address", accountAddress, "err", err)
			time.Sleep(confirmInterval)
			continue
		}
		for i := range txs {
			if matchesTxHash(&txs[i], txHash) {
				return b.canonicalize(&txs[i], txHash)
			}
		}
		time.Sleep(confirmInterval)
	}
	log.Warn("ton confirm transaction timeout", "txHash", txHash, "address", accountAddress)
	return nil
}

func matchesTxHash(tx *rawTransaction, txHash string) bool {
	if hashHex, err := base64ToHex(tx.Hash); err == nil && strings.EqualFold(hashHex, txHash) {
		return true
	}
	if tx.InMsg.Hash != "" {
		if hashHex, err := base64ToHex(tx.InMsg.Hash); err == nil && strings.EqualFold(hashHex, txHash) {
			return true
		}
	}
	return false
}

// transactionFailed reports whether the transaction aborted or any of
// its phases failed. A skipped compute phase is not a failure, simple
// transfers to passive accounts skip it.
func transactionFailed(tx *rawTransaction) bool {
	desc := &tx.Description
	if desc.Aborted {
		return true
	}
	if desc.ComputePh != nil && !desc.ComputePh.Skipped && !desc.ComputePh.Success {
		return true
	}
	if desc.Action != nil && !desc.Action.Success {
		return true
	}
	return false
}

// canonicalize summarizes an account transaction. An aborted or failed
// transaction is reported unsuccessful without decoding its messages.
// Jetton movements are recognized by op code: a transfer body on an
// outgoing message for sends, a transfer_notification on the incoming
// message for receives. Everything else is treated as a plain TON
// transfer.
func (b *Adapter) canonicalize(tx *rawTransaction, txHash string) *tokens.TxRecord {
	record := &tokens.TxRecord{
		Success: true,
		TxHash:  txHash,
		FeeInNative: tokens.FromBaseUnits(
			parseNanotons(tx.TotalFees), b.Desc.NativeDecimals),
	}
	if transactionFailed(tx) {
		record.Success = false
		return record
	}

	if op, body, ok := parseMessageBody(tx.InMsg.Content.Body); ok && op == opJettonTransferNotification {
		// incoming jetton: query id, amount, sender
		if amount, peer, err := decodeJettonBody(body); err == nil {
			record.FromAddress = peer
			record.ToAddress = normalizeAddress(tx.InMsg.Destination)
			record.TokenAmount = tokens.FromBaseUnits(amount, jettonDecimals)
			return record
		}
	}

	for i := range tx.OutMsgs {
		op, body, ok := parseMessageBody(tx.OutMsgs[i].Content.Body)
		if !ok || op != opJettonTransfer {
			continue
		}
		// outgoing jetton: query id, amount, destination
		amount, peer, err := decodeJettonBody(body)
		if err != nil {
			continue
		}
		record.FromAddress = normalizeAddress(tx.OutMsgs[i].Source)
		record.ToAddress = peer
		record.TokenAmount = tokens.FromBaseUnits(amount, jettonDecimals)
		return record
	}

	if tx.InMsg.Source != "" {
		record.FromAddress = normalizeAddress(tx.InMsg.Source)
		record.ToAddress = normalizeAddress(tx.InMsg.Destination)
		record.TokenAmount = tokens.FromBaseUnits(parseNanotons(tx.InMsg.Value), b.Desc.NativeDecimals)
		return record
	}
	if len(tx.OutMsgs) > 0 {
		record.FromAddress = normalizeAddress(tx.OutMsgs[0].Source)
		record.ToAddress = normalizeAddress(tx.OutMsgs[0].Destination)
		record.TokenAmount = tokens.FromBaseUnits(parseNanotons(tx.OutMsgs[0].Value), b.Desc.NativeDecimals)
	}
	return record
}

// decodeJettonBody reads the fields both jetton ops share after the op
// code: query id, amount and one counterparty address.
func decodeJettonBody(body *cell.Slice) (*big.Int, string, error) {
	if _, err := body.LoadUInt(64); err != nil {
		return nil, "", err
	}
	amount, err := body.LoadBigCoins()
	if err != nil {
		return nil, "", err
	}
	peer, err := body.LoadAddr()
	if err != nil {
		return nil, "", err
	}
	return amount, normalizeAddress(peer.String()), nil
}

// parseMessageBody decodes a base64 message body and reads its op code.
// Text comments and truncated bodies report not ok.
func parseMessageBody(encoded string) (uint64, *cell.Slice, bool) {
	if encoded == "" {
		return 0, nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0, nil, false
	}
	c, err := cell.FromBOC(raw)
	if err != nil {
		return 0, nil, false
	}
	slice := c.BeginParse()
	if slice.BitsLeft() < 32 {
		return 0, nil, false
	}
	op, err := slice.LoadUInt(32)
	if err != nil {
		return 0, nil, false
	}
	return op, slice, true
}

func parseNanotons(value string) *big.Int {
	if value == "" {
		return big.NewInt(0)
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return big.NewInt(0)
	}
	return amount
}
