package ton

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

type balanceResult struct {
	OK     bool   `json:"ok"`
	Result string `json:"result"`
}

type walletInfoResult struct {
	OK     bool `json:"ok"`
	Result struct {
		Wallet       bool   `json:"wallet"`
		Balance      string `json:"balance"`
		AccountState string `json:"account_state"`
		Seqno        uint64 `json:"seqno"`
	} `json:"result"`
}

type runGetMethodResult struct {
	OK     bool `json:"ok"`
	Result struct {
		ExitCode int                 `json:"exit_code"`
		Stack    [][]json.RawMessage `json:"stack"`
	} `json:"result"`
}

type estimateFeeResult struct {
	OK     bool `json:"ok"`
	Result struct {
		SourceFees struct {
			InFwdFee   int64 `json:"in_fwd_fee"`
			StorageFee int64 `json:"storage_fee"`
			GasFee     int64 `json:"gas_fee"`
			FwdFee     int64 `json:"fwd_fee"`
		} `json:"source_fees"`
	} `json:"result"`
}

type sendBocResult struct {
	OK     bool `json:"ok"`
	Result struct {
		Hash string `json:"hash"`
	} `json:"result"`
}

type messageContent struct {
	Body string `json:"body"`
}

// rawMessage is a message attached to an indexed transaction. Hash is
// the message hash, distinct from the hash of the transaction that
// processed it.
type rawMessage struct {
	Hash        string         `json:"hash"`
	Source      string         `json:"source"`
	Destination string         `json:"destination"`
	Value       string         `json:"value"`
	Content     messageContent `json:"message_content"`
}

type phaseResult struct {
	Success bool `json:"success"`
	Skipped bool `json:"skipped"`
}

// rawTransaction is a transaction from the toncenter v3 index. The
// description carries the compute and action phase outcome, which is
// the only way to tell an aborted transaction from a settled one.
type rawTransaction struct {
	Hash        string `json:"hash"`
	Lt          string `json:"lt"`
	Now         int64  `json:"now"`
	TotalFees   string `json:"total_fees"`
	Description struct {
		Aborted   bool         `json:"aborted"`
		Destroyed bool         `json:"destroyed"`
		ComputePh *phaseResult `json:"compute_ph"`
		Action    *phaseResult `json:"action"`
	} `json:"description"`
	InMsg   rawMessage   `json:"in_msg"`
	OutMsgs []rawMessage `json:"out_msgs"`
}

type transactionsResult struct {
	Transactions []rawTransaction `json:"transactions"`
	Error        string           `json:"error"`
}

func (b *Adapter) getAddressBalance(addr string) (*big.Int, error) {
	var result balanceResult
	err := b.get("/api/v2/getAddressBalance", map[string]string{"address": addr}, &result)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("getAddressBalance not ok for %v", addr)
	}
	balance, ok := new(big.Int).SetString(result.Result, 10)
	if !ok {
		return nil, fmt.Errorf("invalid balance value %v", result.Result)
	}
	return balance, nil
}

func (b *Adapter) getWalletInformation(addr string) (*walletInfoResult, error) {
	var result walletInfoResult
	err := b.get("/api/v2/getWalletInformation", map[string]string{"address": addr}, &result)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("getWalletInformation not ok for %v", addr)
	}
	return &result, nil
}

func (b *Adapter) runGetMethod(addr, method string, stack [][]interface{}) (*runGetMethodResult, error) {
	if stack == nil {
		stack = [][]interface{}{}
	}
	var result runGetMethodResult
	err := b.post("/api/v2/runGetMethod", map[string]interface{}{
		"address": addr,
		"method":  method,
		"stack":   stack,
	}, &result)
	if err != nil {
		return nil, err
	}
	if !result.OK || result.Result.ExitCode != 0 {
		return nil, fmt.Errorf("runGetMethod %v on %v failed with exit code %v", method, addr, result.Result.ExitCode)
	}
	return &result, nil
}

func (b *Adapter) estimateFee(addr, bodyBOC string) (int64, error) {
	var result estimateFeeResult
	err := b.post("/api/v2/estimateFee", map[string]interface{}{
		"address":       addr,
		"body":          bodyBOC,
		"ignore_chksig": true,
	}, &result)
	if err != nil {
		return 0, err
	}
	if !result.OK {
		return 0, fmt.Errorf("estimateFee not ok for %v", addr)
	}
	fees := result.Result.SourceFees
	return fees.InFwdFee + fees.StorageFee + fees.GasFee + fees.FwdFee, nil
}

// sendBoc submits an external message and returns the hash of the
// message itself. The transaction that processes it gets its own hash,
// so confirmation matches this value against in-message hashes.
func (b *Adapter) sendBoc(bocBase64 string) (string, error) {
	var result sendBocResult
	err := b.post("/api/v2/sendBocReturnHash", map[string]interface{}{"boc": bocBase64}, &result)
	if err != nil {
		return "", err
	}
	if !result.OK || result.Result.Hash == "" {
		return "", fmt.Errorf("sendBocReturnHash rejected message")
	}
	return base64ToHex(result.Result.Hash)
}

func (b *Adapter) getTransactions(addr string, limit int) ([]rawTransaction, error) {
	var result transactionsResult
	err := b.get("/api/v3/transactions", map[string]string{
		"account": addr,
		"limit":   fmt.Sprintf("%d", limit),
		"sort":    "desc",
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("list transactions of %v failed: %v", addr, result.Error)
	}
	return result.Transactions, nil
}

// stackCell decodes a "cell" typed stack entry into a parsed cell.
func stackCell(entry []json.RawMessage) (*cell.Cell, error) {
	if len(entry) != 2 {
		return nil, fmt.Errorf("malformed stack entry")
	}
	var wrapper struct {
		Bytes string `json:"bytes"`
	}
	if err := json.Unmarshal(entry[1], &wrapper); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(wrapper.Bytes)
	if err != nil {
		return nil, err
	}
	return cell.FromBOC(raw)
}

// stackNum decodes a "num" typed stack entry, a hex string like "0x10".
func stackNum(entry []json.RawMessage) (*big.Int, error) {
	if len(entry) != 2 {
		return nil, fmt.Errorf("malformed stack entry")
	}
	var value string
	if err := json.Unmarshal(entry[1], &value); err != nil {
		return nil, err
	}
	value = strings.TrimPrefix(value, "0x")
	num, ok := new(big.Int).SetString(value, 16)
	if !ok {
		return nil, fmt.Errorf("invalid stack num %v", value)
	}
	return num, nil
}

// jettonWalletAddress resolves the jetton wallet owned by owner for the
// given jetton master contract.
func (b *Adapter) jettonWalletAddress(master, owner string) (*address.Address, error) {
	ownerAddr, err := parseAddress(owner)
	if err != nil {
		return nil, err
	}
	ownerSlice := cell.BeginCell().MustStoreAddr(ownerAddr).EndCell()
	encoded := base64.StdEncoding.EncodeToString(ownerSlice.ToBOC())
	result, err := b.runGetMethod(master, "get_wallet_address", [][]interface{}{
		{"tvm.Slice", encoded},
	})
	if err != nil {
		return nil, err
	}
	if len(result.Result.Stack) == 0 {
		return nil, fmt.Errorf("get_wallet_address returned empty stack")
	}
	addrCell, err := stackCell(result.Result.Stack[0])
	if err != nil {
		return nil, err
	}
	return addrCell.BeginParse().LoadAddr()
}

// jettonBalance reads the balance field of a jetton wallet contract.
// An uninitialized jetton wallet has no code to run, treat that as zero.
func (b *Adapter) jettonBalance(jettonWallet string) (*big.Int, error) {
	result, err := b.runGetMethod(jettonWallet, "get_wallet_data", nil)
	if err != nil {
		return big.NewInt(0), nil
	}
	if len(result.Result.Stack) == 0 {
		return nil, fmt.Errorf("get_wallet_data returned empty stack")
	}
	return stackNum(result.Result.Stack[0])
}

// GetBalance returns the native or jetton balance of address in token
// units. Lookups are best effort, failures report a zero balance.
func (b *Adapter) GetBalance(address string, token *tokens.TokenConfig) float64 {
	if token == nil || token.Address == "" || sameAddress(token.Address, b.Desc.NativeAddress) {
		balance, err := b.getAddressBalance(address)
		if err != nil {
			log.Warn("get ton balance failed", "address", address, "err", err)
			return 0
		}
		return tokens.FromBaseUnits(balance, b.Desc.NativeDecimals)
	}
	jettonWallet, err := b.jettonWalletAddress(token.Address, address)
	if err != nil {
		log.Warn("resolve jetton wallet failed", "owner", address, "jetton", token.Address, "err", err)
		return 0
	}
	balance, err := b.jettonBalance(jettonWallet.String())
	if err != nil {
		log.Warn("get jetton balance failed", "owner", address, "jetton", token.Address, "err", err)
		return 0
	}
	return tokens.FromBaseUnits(balance, token.Decimals)
}
