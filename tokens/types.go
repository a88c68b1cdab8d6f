package tokens

import (
	"errors"
	"strings"
)

// ChainFamily is the closed set of supported chain families.
type ChainFamily string

// supported chain families
const (
	FamilyEVM  ChainFamily = "evm"
	FamilyTRON ChainFamily = "tron"
	FamilyTON  ChainFamily = "ton"
)

// common errors
var (
	ErrInvalidChain   = errors.New("invalid chain")
	ErrInvalidAmount  = errors.New("invalid transfer amount")
	ErrTxNotFound     = errors.New("transaction not found")
	ErrDeriveWallet   = errors.New("derive wallet failed")
	ErrInvalidAddress = errors.New("invalid address")
)

// IsKnownFamily returns if family is a supported chain family.
func IsKnownFamily(family ChainFamily) bool {
	switch family {
	case FamilyEVM, FamilyTRON, FamilyTON:
		return true
	default:
		return false
	}
}

// ExplorerConfig explorer url templates of a chain
type ExplorerConfig struct {
	URL         string
	TxPath      string
	AccountPath string
}

// ChainDescriptor static per chain metadata (decode from toml file).
// Immutable after startup, looked up by chain identifier.
type ChainDescriptor struct {
	ChainID        string
	Name           string
	Symbol         string
	Family         ChainFamily
	RPC            string
	RestAPI        string `toml:",omitempty"` // toncenter api root, versioned paths are appended
	NativeDecimals int
	NativeAddress  string `toml:",omitempty"`
	IsTestnet      bool   `toml:",omitempty"`
	Explorer       ExplorerConfig
}

// TxLink returns the explorer link of a transaction hash.
func (c *ChainDescriptor) TxLink(txHash string) string {
	return c.Explorer.URL + c.Explorer.TxPath + txHash
}

// Wallet is a derived chain wallet. The seed phrase is stored encrypted
// and decrypted only transiently inside signing calls.
type Wallet struct {
	Address           string      `bson:"address"`
	EncryptedMnemonic string      `bson:"mnemonic"`
	Family            ChainFamily `bson:"type"`
}

// TokenConfig describes a transferable token on one chain.
type TokenConfig struct {
	ChainID  string
	Address  string
	Name     string
	Symbol   string
	Decimals int
	IsNative bool `toml:",omitempty"`
}

// IsSameToken compares tokens by (chainID, address) case insensitively.
func (t *TokenConfig) IsSameToken(other *TokenConfig) bool {
	if t == nil || other == nil {
		return false
	}
	return strings.EqualFold(t.ChainID, other.ChainID) &&
		strings.EqualFold(t.Address, other.Address)
}

// BroadcastResult is the outcome of signing and submitting a transfer.
type BroadcastResult struct {
	Status  bool
	TxHash  string
	Fee     float64 // native units, zero when unknown at broadcast time
	Message string
}

// TxRecord is the canonical chain agnostic summary of a confirmed
// transaction. Produced by chain adapters, consumed by the settlement
// engine. Not persisted.
type TxRecord struct {
	Success     bool
	FromAddress string
	ToAddress   string
	TokenAmount float64 // token units
	FeeInNative float64 // native token units
	TxHash      string
}

// TransferArgs arguments of a token transfer.
type TransferArgs struct {
	Wallet          *Wallet
	Token           *TokenConfig
	ReceiverAddress string
	AmountInUnit    float64
}

// ChainAdapter is the per family chain capability. Implementations must
// never propagate raw transport errors: GetBalance falls back to zero,
// Transfer reports Status false, ConfirmTransaction returns nil.
//
// ConfirmTransaction polls until the transaction reaches a terminal
// outcome or the family specific timeout elapses. The address argument
// is required by chain families without synchronous receipts (TON) to
// locate the transaction; synchronous families ignore it.
type ChainAdapter interface {
	DeriveWallet(mnemonic string) (*Wallet, error)
	GetBalance(address string, token *TokenConfig) float64
	Transfer(args *TransferArgs) *BroadcastResult
	ConfirmTransaction(txHash, address string) *TxRecord
}
