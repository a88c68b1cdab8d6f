package mongodb

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/Jayke770/stablebot-worker/tokens"
)

var (
	collBridge       *mgo.Collection
	collBridgeConfig *mgo.Collection
	collUser         *mgo.Collection
	collUserToken    *mgo.Collection
)

const maxCountOfResults = 5000

func getOrInitCollection(table string, collection **mgo.Collection, indexKey ...string) *mgo.Collection {
	if *collection == nil {
		*collection = database.C(table)
		if len(indexKey) != 0 {
			(*collection).EnsureIndexKey(indexKey...)
		}
	}
	return *collection
}

func getCollection(table string) *mgo.Collection {
	switch table {
	case tbBridges:
		return getOrInitCollection(table, &collBridge, "status", "inittime")
	case tbBridgeConfigs:
		return getOrInitCollection(table, &collBridgeConfig)
	case tbUsers:
		return getOrInitCollection(table, &collUser)
	case tbUserTokens:
		return getOrInitCollection(table, &collUserToken, "userId")
	default:
		panic("unknown table " + table)
	}
}

func deinitCollections() {
	collBridge = nil
	collBridgeConfig = nil
	collUser = nil
	collUserToken = nil
}

// --------------- bridge --------------------------------

// AddBridge add a new pending bridge, duplicate bridge ids are rejected
func AddBridge(mb *MgoBridge) error {
	if mb.Status == "" {
		mb.Status = StatusPending
	}
	if mb.InitTime == 0 {
		mb.InitTime = time.Now().Unix()
	}
	mb.Timestamp = time.Now().Unix()
	err := getCollection(tbBridges).Insert(mb)
	return mgoError(err)
}

// FindBridge find a bridge by its id
func FindBridge(bridgeID string) (*MgoBridge, error) {
	var result MgoBridge
	err := getCollection(tbBridges).FindId(bridgeID).One(&result)
	if err != nil {
		return nil, mgoError(err)
	}
	return &result, nil
}

// FindBridgesWithStatus find bridges with the given status, oldest first
func FindBridgesWithStatus(status BridgeStatus) ([]*MgoBridge, error) {
	result := make([]*MgoBridge, 0, 20)
	iter := getCollection(tbBridges).Find(bson.M{"status": status}).Sort("inittime").Limit(maxCountOfResults).Iter()
	var item MgoBridge
	for iter.Next(&item) {
		bridge := item
		result = append(result, &bridge)
	}
	if err := iter.Close(); err != nil {
		return nil, mgoError(err)
	}
	return result, nil
}

// CountBridgesWithStatus count bridges with the given status
func CountBridgesWithStatus(status BridgeStatus) (int, error) {
	count, err := getCollection(tbBridges).Find(bson.M{"status": status}).Count()
	return count, mgoError(err)
}

// AttachWithdrawTx records the destination leg transaction hash as soon
// as it is broadcast, before any confirmation work. A later retry sees
// the hash and re-confirms instead of broadcasting again.
func AttachWithdrawTx(bridgeID, txHash string) error {
	updates := bson.M{"wdTxHash": txHash, "timestamp": time.Now().Unix()}
	err := getCollection(tbBridges).UpdateId(bridgeID, bson.M{"$set": updates})
	return mgoError(err)
}

// CompleteBridge atomically flips a pending bridge to completed and
// writes the settlement outcome. The selector requires the pending
// status, a bridge completed by a concurrent worker reports
// ErrItemNotFound and the caller treats that as already settled.
func CompleteBridge(bridgeID string, items *BridgeCompleteItems) error {
	updates := bson.M{
		"status":                StatusCompleted,
		"wdTxHash":              items.WithdrawTxHash,
		"destTokenAmountInUnit": items.DestAmountInUnit,
		"srcFeeAmountInUnit":    items.SrcFeeInUnit,
		"destFeeAmountInUnit":   items.DestFeeInUnit,
		"srcSeconds":            items.SrcSeconds,
		"destSeconds":           items.DestSeconds,
		"timestamp":             items.Timestamp,
	}
	if items.Timestamp == 0 {
		updates["timestamp"] = time.Now().Unix()
	}
	selector := bson.M{"_id": bridgeID, "status": StatusPending}
	err := getCollection(tbBridges).Update(selector, bson.M{"$set": updates})
	return mgoError(err)
}

// --------------- bridge config -------------------------

// InitBridgeConfig upsert the bridge config document, keeping existing
// wallets and counters when the document already exists
func InitBridgeConfig(configID string) error {
	_, err := getCollection(tbBridgeConfigs).UpsertId(configID, bson.M{
		"$setOnInsert": bson.M{"wallets": []*tokens.Wallet{}, "totalBridgeTx": 0},
		"$set":         bson.M{"timestamp": time.Now().Unix()},
	})
	return mgoError(err)
}

// FindBridgeConfig find the bridge config document
func FindBridgeConfig(configID string) (*MgoBridgeConfig, error) {
	var result MgoBridgeConfig
	err := getCollection(tbBridgeConfigs).FindId(configID).One(&result)
	if err != nil {
		return nil, mgoError(err)
	}
	return &result, nil
}

// AddPoolWallet append a derived pool wallet to the config document
func AddPoolWallet(configID string, wallet *tokens.Wallet) error {
	err := getCollection(tbBridgeConfigs).UpdateId(configID, bson.M{
		"$push": bson.M{"wallets": wallet},
		"$set":  bson.M{"timestamp": time.Now().Unix()},
	})
	return mgoError(err)
}

// FindPoolWallet find the pool wallet of a chain family
func FindPoolWallet(configID string, family tokens.ChainFamily) (*tokens.Wallet, error) {
	var result MgoBridgeConfig
	err := getCollection(tbBridgeConfigs).
		FindId(configID).
		Select(bson.M{"wallets": bson.M{"$elemMatch": bson.M{"type": family}}}).
		One(&result)
	if err != nil {
		return nil, mgoError(err)
	}
	if len(result.Wallets) == 0 {
		return nil, ErrWalletNotFound
	}
	return result.Wallets[0], nil
}

// IncTotalBridgeTx bump the settled bridge counter
func IncTotalBridgeTx(configID string) error {
	err := getCollection(tbBridgeConfigs).UpdateId(configID, bson.M{
		"$inc": bson.M{"totalBridgeTx": 1},
	})
	return mgoError(err)
}

// --------------- users and tracked tokens --------------

// FindUser find a bot user by its telegram id
func FindUser(userID int64) (*MgoUser, error) {
	var result MgoUser
	err := getCollection(tbUsers).FindId(userID).One(&result)
	if err != nil {
		return nil, mgoError(err)
	}
	return &result, nil
}

// UpdateUserTimestamp record the time of the latest balance refresh
func UpdateUserTimestamp(userID int64) error {
	err := getCollection(tbUsers).UpdateId(userID, bson.M{
		"$set": bson.M{"updatedAt": time.Now().Unix()},
	})
	return mgoError(err)
}

// UserTokenKey document key of a tracked user token
func UserTokenKey(userID int64, chainID, address string) string {
	return strings.ToLower(fmt.Sprintf("%d-%s-%s", userID, chainID, address))
}

// AddUserToken track a token for a user, duplicates are rejected
func AddUserToken(mt *MgoUserToken) error {
	if mt.Key == "" {
		mt.Key = UserTokenKey(mt.UserID, mt.ChainID, mt.Address)
	}
	mt.Timestamp = time.Now().Unix()
	err := getCollection(tbUserTokens).Insert(mt)
	return mgoError(err)
}

// FindUserTokens list the tracked tokens of a user
func FindUserTokens(userID int64) ([]*MgoUserToken, error) {
	result := make([]*MgoUserToken, 0, 10)
	iter := getCollection(tbUserTokens).Find(bson.M{"userId": userID}).Iter()
	var item MgoUserToken
	for iter.Next(&item) {
		token := item
		result = append(result, &token)
	}
	if err := iter.Close(); err != nil {
		return nil, mgoError(err)
	}
	return result, nil
}

// FindUserToken find one tracked token by user, chain and address
func FindUserToken(userID int64, chainID, address string) (*MgoUserToken, error) {
	var result MgoUserToken
	err := getCollection(tbUserTokens).FindId(UserTokenKey(userID, chainID, address)).One(&result)
	if err != nil {
		return nil, mgoError(err)
	}
	return &result, nil
}

// UpdateUserTokenBalance write back a refreshed balance and valuation
func UpdateUserTokenBalance(key string, balance, usdValue float64) error {
	err := getCollection(tbUserTokens).UpdateId(key, bson.M{
		"$set": bson.M{
			"balance":   balance,
			"usdValue":  usdValue,
			"timestamp": time.Now().Unix(),
		},
	})
	return mgoError(err)
}
