package worker

import (
	"github.com/Jayke770/stablebot-worker/dex"
	"github.com/Jayke770/stablebot-worker/mongodb"
	"github.com/Jayke770/stablebot-worker/tokens"
)

// BridgeStore is the persistence the settler needs. Implemented by the
// mongodb package in production, by fakes in tests.
type BridgeStore interface {
	FindBridge(bridgeID string) (*mongodb.MgoBridge, error)
	FindBridgesWithStatus(status mongodb.BridgeStatus) ([]*mongodb.MgoBridge, error)
	AttachWithdrawTx(bridgeID, txHash string) error
	CompleteBridge(bridgeID string, items *mongodb.BridgeCompleteItems) error
	FindPoolWallet(configID string, family tokens.ChainFamily) (*tokens.Wallet, error)
	IncTotalBridgeTx(configID string) error
	FindUser(userID int64) (*mongodb.MgoUser, error)
	UpdateUserTimestamp(userID int64) error
	FindUserTokens(userID int64) ([]*mongodb.MgoUserToken, error)
	UpdateUserTokenBalance(key string, balance, usdValue float64) error
}

// ChainRouter routes chain calls by chain identifier.
type ChainRouter interface {
	GetChain(chainID string) *tokens.ChainDescriptor
	GetBalance(chainID, address string, token *tokens.TokenConfig) float64
	Transfer(chainID string, args *tokens.TransferArgs) *tokens.BroadcastResult
	ConfirmTransaction(chainID, txHash, address string) *tokens.TxRecord
}

// PriceOracle values tokens in USD.
type PriceOracle interface {
	GetTokenInfo(token *tokens.TokenConfig) (*dex.TokenInfo, error)
}

// TaskQueue is the keyed job queue used for settlement dispatch.
type TaskQueue interface {
	Enqueue(task, key string, payload interface{}) (bool, error)
	Has(key string) (bool, error)
}

// Messenger edits the user facing progress message. May be absent.
type Messenger interface {
	SendMessage(chatID int64, text string) (int64, error)
	EditMessage(chatID, messageID int64, text string) error
	DeleteMessage(chatID, messageID int64) error
}

// OperatorNotifier fans settlement notices out to operator channels.
type OperatorNotifier interface {
	Notify(subject, text string)
}

// Store adapts the mongodb package to the BridgeStore interface.
type Store struct{}

func (Store) FindBridge(bridgeID string) (*mongodb.MgoBridge, error) {
	return mongodb.FindBridge(bridgeID)
}

func (Store) FindBridgesWithStatus(status mongodb.BridgeStatus) ([]*mongodb.MgoBridge, error) {
	return mongodb.FindBridgesWithStatus(status)
}

func (Store) AttachWithdrawTx(bridgeID, txHash string) error {
	return mongodb.AttachWithdrawTx(bridgeID, txHash)
}

func (Store) CompleteBridge(bridgeID string, items *mongodb.BridgeCompleteItems) error {
	return mongodb.CompleteBridge(bridgeID, items)
}

func (Store) FindPoolWallet(configID string, family tokens.ChainFamily) (*tokens.Wallet, error) {
	return mongodb.FindPoolWallet(configID, family)
}

func (Store) IncTotalBridgeTx(configID string) error {
	return mongodb.IncTotalBridgeTx(configID)
}

func (Store) FindUser(userID int64) (*mongodb.MgoUser, error) {
	return mongodb.FindUser(userID)
}

func (Store) UpdateUserTimestamp(userID int64) error {
	return mongodb.UpdateUserTimestamp(userID)
}

func (Store) FindUserTokens(userID int64) ([]*mongodb.MgoUserToken, error) {
	return mongodb.FindUserTokens(userID)
}

func (Store) UpdateUserTokenBalance(key string, balance, usdValue float64) error {
	return mongodb.UpdateUserTokenBalance(key, balance, usdValue)
}
