// Package eth implements the ChainAdapter capability for EVM chains.
package eth

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Jayke770/stablebot-worker/tokens"
)

// confirmation polling parameters
const (
	confirmTimeout  = 5 * time.Minute
	confirmInterval = 1 * time.Second

	rpcTimeout = 30 * time.Second
)

const erc20ABIDefinition = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Transfer","type":"event"}
]`

var erc20ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIDefinition))
	if err != nil {
		panic(err)
	}
	return parsed
}()

var transferEventTopic = erc20ABI.Events["Transfer"].ID

// Adapter is an EVM chain adapter bound to one chain descriptor.
// Instances are cheap and safe to construct per call, they hold no
// mutable state.
type Adapter struct {
	Desc *tokens.ChainDescriptor
}

// New returns an adapter bound to the given chain descriptor.
func New(desc *tokens.ChainDescriptor) *Adapter {
	return &Adapter{Desc: desc}
}

func (b *Adapter) dial() (*ethclient.Client, error) {
	return ethclient.Dial(b.Desc.RPC)
}

func rpcContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rpcTimeout)
}
