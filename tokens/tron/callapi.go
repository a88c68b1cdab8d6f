package tron

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

type accountResult struct {
	Balance int64 `json:"balance"`
}

type constantCallResult struct {
	Result struct {
		Result bool `json:"result"`
	} `json:"result"`
	ConstantResult []string `json:"constant_result"`
}

type txRet struct {
	ContractRet string `json:"contractRet"`
}

type txContractValue struct {
	OwnerAddress    string `json:"owner_address"`
	ToAddress       string `json:"to_address"`
	ContractAddress string `json:"contract_address"`
	Amount          int64  `json:"amount"`
	Data            string `json:"data"`
}

type txContract struct {
	Type      string `json:"type"`
	Parameter struct {
		Value txContractValue `json:"value"`
	} `json:"parameter"`
}

type transactionResult struct {
	TxID    string  `json:"txID"`
	Ret     []txRet `json:"ret"`
	RawData struct {
		Contract []txContract `json:"contract"`
	} `json:"raw_data"`
}

type transactionInfoResult struct {
	ID  string `json:"id"`
	Fee int64  `json:"fee"`
}

type broadcastResponse struct {
	Result  bool   `json:"result"`
	TxID    string `json:"txid"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (b *Adapter) getAccount(addr string) (*accountResult, error) {
	hexAddr, err := Base58ToHex(addr)
	if err != nil {
		return nil, err
	}
	var result accountResult
	err = b.post("/wallet/getaccount", map[string]interface{}{"address": hexAddr}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (b *Adapter) triggerConstantContract(owner, contract, selector, parameter string) (*constantCallResult, error) {
	ownerHex, err := Base58ToHex(owner)
	if err != nil {
		return nil, err
	}
	contractHex, err := Base58ToHex(contract)
	if err != nil {
		return nil, err
	}
	var result constantCallResult
	err = b.post("/wallet/triggerconstantcontract", map[string]interface{}{
		"owner_address":     ownerHex,
		"contract_address":  contractHex,
		"function_selector": selector,
		"parameter":         parameter,
	}, &result)
	if err != nil {
		return nil, err
	}
	if !result.Result.Result || len(result.ConstantResult) == 0 {
		return nil, fmt.Errorf("tron constant call %v failed", selector)
	}
	return &result, nil
}

func (b *Adapter) getTransactionByID(txHash string) (*transactionResult, error) {
	var result transactionResult
	err := b.post("/wallet/gettransactionbyid", map[string]interface{}{"value": txHash}, &result)
	if err != nil {
		return nil, err
	}
	if result.TxID == "" {
		return nil, tokens.ErrTxNotFound
	}
	return &result, nil
}

func (b *Adapter) getTransactionInfo(txHash string) (*transactionInfoResult, error) {
	var result transactionInfoResult
	err := b.post("/wallet/gettransactioninfobyid", map[string]interface{}{"value": txHash}, &result)
	if err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, tokens.ErrTxNotFound
	}
	return &result, nil
}

// GetBalance returns the TRX or TRC20 balance in token units. A nil
// token reads the native balance. Best effort, zero on any failure.
func (b *Adapter) GetBalance(address string, token *tokens.TokenConfig) float64 {
	if token == nil || token.IsNative {
		account, err := b.getAccount(address)
		if err != nil {
			log.Warn("tron get account failed", "chainID", b.Desc.ChainID, "address", address, "err", err)
			return 0
		}
		return tokens.FromBaseUnits(big.NewInt(account.Balance), b.Desc.NativeDecimals)
	}

	result, err := b.triggerConstantContract(address, token.Address, "balanceOf(address)", addressParameter(address))
	if err != nil {
		log.Warn("tron balanceOf call failed", "chainID", b.Desc.ChainID, "token", token.Symbol, "err", err)
		return 0
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(result.ConstantResult[0], "0x"))
	if err != nil {
		return 0
	}
	return tokens.FromBaseUnits(new(big.Int).SetBytes(raw), token.Decimals)
}

// addressParameter ABI encodes a single address argument.
func addressParameter(addr string) string {
	hexAddr, err := Base58ToHex(addr)
	if err != nil {
		return strings.Repeat("0", 64)
	}
	// drop the 0x41 version byte, left pad the 20 byte body to a word
	return strings.Repeat("0", 24) + hexAddr[2:]
}
