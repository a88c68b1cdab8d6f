// Package tron implements the ChainAdapter capability for TRON chains
// through the wallet REST API of a full node.
package tron

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Jayke770/stablebot-worker/tokens"
)

// confirmation polling parameters, TRON blocks land every ~3s but the
// execution result shows up much faster
const (
	confirmTimeout  = 60 * time.Second
	confirmInterval = 100 * time.Millisecond

	rpcTimeout = 15 * time.Second

	// fee_limit of TRC20 transfers, 30 TRX in sun
	trc20FeeLimit = int64(30_000_000)

	// TRC20 amounts in canonical records are decoded with the USDT
	// scale, the raw contract call does not carry token decimals
	trc20Decimals = 6
)

// Adapter is a TRON chain adapter bound to one chain descriptor.
type Adapter struct {
	Desc   *tokens.ChainDescriptor
	client *resty.Client
}

// New returns an adapter bound to the given chain descriptor.
func New(desc *tokens.ChainDescriptor) *Adapter {
	return &Adapter{
		Desc:   desc,
		client: resty.New().SetTimeout(rpcTimeout),
	}
}

func (b *Adapter) post(path string, body, result interface{}) error {
	resp, err := b.client.R().SetBody(body).Post(b.Desc.RPC + path)
	if err != nil {
		return fmt.Errorf("tron rpc request error: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("tron rpc error response status: %v", resp.StatusCode())
	}
	return json.Unmarshal(resp.Body(), result)
}
