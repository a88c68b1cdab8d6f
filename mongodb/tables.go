package mongodb

import (
	"github.com/Jayke770/stablebot-worker/tokens"
)

const (
	tbBridges       string = "Bridges"
	tbBridgeConfigs string = "BridgeConfigs"
	tbUsers         string = "Users"
	tbUserTokens    string = "UserTokens"
)

// MgoBridgeToken token snapshot embedded in a bridge document. The
// configured token list can change, settled bridges keep what they saw.
type MgoBridgeToken struct {
	ChainID  string `bson:"chainId"`
	Address  string `bson:"address"`
	Symbol   string `bson:"symbol"`
	Decimals int    `bson:"decimals"`
	IsNative bool   `bson:"isNative"`
}

// TokenConfig converts the snapshot back to a chain token config.
func (t *MgoBridgeToken) TokenConfig() *tokens.TokenConfig {
	return &tokens.TokenConfig{
		ChainID:  t.ChainID,
		Address:  t.Address,
		Symbol:   t.Symbol,
		Decimals: t.Decimals,
		IsNative: t.IsNative,
	}
}

// MgoBridge a bridge settlement document
type MgoBridge struct {
	BridgeID         string          `bson:"_id"`
	ConfigID         string          `bson:"configId"`
	UserID           int64           `bson:"userId,omitempty"`
	SrcChainID       string          `bson:"srcChainId"`
	DestChainID      string          `bson:"destChainId"`
	SrcToken         *MgoBridgeToken `bson:"srcToken"`
	DestToken        *MgoBridgeToken `bson:"destToken"`
	SrcAmountInUnit  float64         `bson:"srcTokenAmountInUnit"`
	SrcAmountInUSD   float64         `bson:"srcTokenAmountInUsd"`
	DestAmountInUnit float64         `bson:"destTokenAmountInUnit"`
	DestAmountInUSD  float64         `bson:"destTokenAmountInUsd"`
	SenderAddress    string          `bson:"senderAddress"`
	ReceiverAddress  string          `bson:"receiverAddress"`
	DepositTxHash    string          `bson:"dpTxHash"`
	WithdrawTxHash   string          `bson:"wdTxHash,omitempty"`
	SrcFeeInUnit     float64         `bson:"srcFeeAmountInUnit,omitempty"`
	DestFeeInUnit    float64         `bson:"destFeeAmountInUnit,omitempty"`
	SrcSeconds       int64           `bson:"srcSeconds,omitempty"`
	DestSeconds      int64           `bson:"destSeconds,omitempty"`
	ChatID           int64           `bson:"chatId,omitempty"`
	MessageID        int64           `bson:"messageId,omitempty"` // progress message being edited
	Status           BridgeStatus    `bson:"status"`
	InitTime         int64           `bson:"inittime"`
	Timestamp        int64           `bson:"timestamp"`
}

// BridgeCompleteItems the fields written when a bridge completes
type BridgeCompleteItems struct {
	WithdrawTxHash   string
	DestAmountInUnit float64
	SrcFeeInUnit     float64
	DestFeeInUnit    float64
	SrcSeconds       int64
	DestSeconds      int64
	Timestamp        int64
}

// MgoBridgeConfig operator pool configuration, one document per worker
// deployment. Wallets hold one pool wallet per chain family.
type MgoBridgeConfig struct {
	ConfigID      string           `bson:"_id"`
	Wallets       []*tokens.Wallet `bson:"wallets"`
	TotalBridgeTx int64            `bson:"totalBridgeTx"`
	Timestamp     int64            `bson:"timestamp"`
}

// MgoUser a bot user with one derived wallet per chain family. The bot
// front end creates and owns these documents, the worker only reads the
// wallets and refreshes balances.
type MgoUser struct {
	UserID    int64            `bson:"_id"`
	Wallets   []*tokens.Wallet `bson:"wallets"`
	UpdatedAt int64            `bson:"updatedAt"` // last balance refresh
	Timestamp int64            `bson:"timestamp"`
}

// Wallet returns the user wallet of a chain family, nil when absent.
func (u *MgoUser) Wallet(family tokens.ChainFamily) *tokens.Wallet {
	for _, wallet := range u.Wallets {
		if wallet.Family == family {
			return wallet
		}
	}
	return nil
}

// MgoUserToken a token tracked for one user, with its last refreshed
// balance and USD valuation
type MgoUserToken struct {
	Key       string  `bson:"_id"` // userId-chainId-address lowercased
	UserID    int64   `bson:"userId"`
	ChainID   string  `bson:"chainId"`
	Address   string  `bson:"address"`
	Symbol    string  `bson:"symbol"`
	Decimals  int     `bson:"decimals"`
	IsNative  bool    `bson:"isNative,omitempty"`
	Balance   float64 `bson:"balance"`
	USDValue  float64 `bson:"usdValue"`
	Timestamp int64   `bson:"timestamp"`
}

// TokenConfig converts the tracked token to a chain token config.
func (t *MgoUserToken) TokenConfig() *tokens.TokenConfig {
	return &tokens.TokenConfig{
		ChainID:  t.ChainID,
		Address:  t.Address,
		Symbol:   t.Symbol,
		Decimals: t.Decimals,
		IsNative: t.IsNative,
	}
}
