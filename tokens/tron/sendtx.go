package tron

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

// Transfer signs and broadcasts a TRX or TRC20 transfer. The unsigned
// transaction is built by the node, signed locally over its txID (the
// sha256 of raw_data) and broadcast back. No internal retries.
func (b *Adapter) Transfer(args *tokens.TransferArgs) *tokens.BroadcastResult {
	if err := tokens.CheckTransferAmount(args.AmountInUnit); err != nil {
		return &tokens.BroadcastResult{Status: false, Message: err.Error()}
	}

	key, err := b.privateKey(args.Wallet)
	if err != nil {
		log.Error("tron recover signing key failed", "chainID", b.Desc.ChainID, "err", err)
		return &tokens.BroadcastResult{Status: false, Message: "recover signing key failed"}
	}

	var unsigned map[string]interface{}
	if args.Token.IsNative {
		unsigned, err = b.buildNativeTransfer(args)
	} else {
		unsigned, err = b.buildTRC20Transfer(args)
	}
	if err != nil {
		log.Error("tron build transfer failed", "chainID", b.Desc.ChainID, "token", args.Token.Symbol, "err", err)
		return &tokens.BroadcastResult{Status: false, Message: "build transaction failed"}
	}

	txHash, err := b.signAndBroadcast(unsigned, key)
	if err != nil {
		log.Error("tron broadcast failed", "chainID", b.Desc.ChainID, "err", err)
		return &tokens.BroadcastResult{Status: false, Message: "broadcast failed"}
	}

	log.Info("tron transfer broadcast",
		"chainID", b.Desc.ChainID, "token", args.Token.Symbol,
		"amount", args.AmountInUnit, "receiver", args.ReceiverAddress, "txHash", txHash)
	return &tokens.BroadcastResult{Status: true, TxHash: txHash}
}

func (b *Adapter) buildNativeTransfer(args *tokens.TransferArgs) (map[string]interface{}, error) {
	ownerHex, err := Base58ToHex(args.Wallet.Address)
	if err != nil {
		return nil, err
	}
	toHex, err := Base58ToHex(args.ReceiverAddress)
	if err != nil {
		return nil, err
	}
	amountInSun := tokens.ToBaseUnits(args.AmountInUnit, b.Desc.NativeDecimals)

	var unsigned map[string]interface{}
	err = b.post("/wallet/createtransaction", map[string]interface{}{
		"owner_address": ownerHex,
		"to_address":    toHex,
		"amount":        amountInSun.Int64(),
	}, &unsigned)
	if err != nil {
		return nil, err
	}
	if _, ok := unsigned["txID"].(string); !ok {
		return nil, fmt.Errorf("tron createtransaction returned no txID")
	}
	return unsigned, nil
}

func (b *Adapter) buildTRC20Transfer(args *tokens.TransferArgs) (map[string]interface{}, error) {
	ownerHex, err := Base58ToHex(args.Wallet.Address)
	if err != nil {
		return nil, err
	}
	contractHex, err := Base58ToHex(args.Token.Address)
	if err != nil {
		return nil, err
	}
	amount := tokens.ToBaseUnits(args.AmountInUnit, args.Token.Decimals)

	var response struct {
		Result struct {
			Result bool `json:"result"`
		} `json:"result"`
		Transaction map[string]interface{} `json:"transaction"`
	}
	err = b.post("/wallet/triggersmartcontract", map[string]interface{}{
		"owner_address":     ownerHex,
		"contract_address":  contractHex,
		"function_selector": "transfer(address,uint256)",
		"parameter":         transferParameter(args.ReceiverAddress, amount),
		"fee_limit":         trc20FeeLimit,
		"call_value":        0,
	}, &response)
	if err != nil {
		return nil, err
	}
	if !response.Result.Result || response.Transaction == nil {
		return nil, fmt.Errorf("tron triggersmartcontract rejected")
	}
	return response.Transaction, nil
}

// transferParameter ABI encodes the (address, uint256) arguments of a
// TRC20 transfer call.
func transferParameter(receiver string, amount *big.Int) string {
	return addressParameter(receiver) +
		strings.Repeat("0", 64-len(amount.Text(16))) + amount.Text(16)
}

func (b *Adapter) signAndBroadcast(unsigned map[string]interface{}, key *ecdsa.PrivateKey) (string, error) {
	txID, _ := unsigned["txID"].(string)
	digest, err := hex.DecodeString(txID)
	if err != nil || len(digest) != 32 {
		return "", fmt.Errorf("tron invalid txID %q", txID)
	}

	signature, err := crypto.Sign(digest, key)
	if err != nil {
		return "", err
	}
	unsigned["signature"] = []string{hex.EncodeToString(signature)}

	var response broadcastResponse
	if err := b.post("/wallet/broadcasttransaction", unsigned, &response); err != nil {
		return "", err
	}
	if !response.Result {
		message := response.Message
		if decoded, err := hex.DecodeString(message); err == nil {
			message = string(decoded)
		}
		return "", fmt.Errorf("tron broadcast rejected: %v %v", response.Code, message)
	}
	return txID, nil
}
