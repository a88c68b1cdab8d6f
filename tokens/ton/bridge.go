// Package ton implements the ChainAdapter capability for TON.
//
// TON has no synchronous receipts: transfers are external messages to
// the operator's wallet contract and confirmation means locating the
// resulting transaction on the account and inspecting its messages.
// Chain access goes through a toncenter style REST root configured on
// the chain descriptor: the v2 helpers cover balance, wallet info, fee
// estimation and raw message submission, while transaction listing
// uses the v3 index, which exposes per-phase results and message
// hashes the v2 shape lacks.
package ton

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Jayke770/stablebot-worker/tokens"
)

const (
	confirmTimeout  = 30 * time.Second
	confirmInterval = 1 * time.Second

	rpcTimeout = 15 * time.Second

	// subwallet id of the v4r2 wallet contract
	walletID = 698983191

	// TON attached to a jetton transfer to pay forward fees, in nanotons
	jettonTransferAttachAmount = 20_000_000 // 0.02 TON

	// jetton op codes
	opJettonTransfer             = 0x0f8a7ea5
	opJettonTransferNotification = 0x7362d09c
)

// Adapter is a TON chain adapter bound to one chain descriptor.
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

func (b *Adapter) get(path string, params map[string]string, result interface{}) error {
	resp, err := b.client.R().SetQueryParams(params).Get(b.Desc.RestAPI + path)
	if err != nil {
		return fmt.Errorf("ton rest request error: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("ton rest error response status: %v", resp.StatusCode())
	}
	return json.Unmarshal(resp.Body(), result)
}

func (b *Adapter) post(path string, body, result interface{}) error {
	resp, err := b.client.R().SetBody(body).Post(b.Desc.RestAPI + path)
	if err != nil {
		return fmt.Errorf("ton rest request error: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("ton rest error response status: %v", resp.StatusCode())
	}
	return json.Unmarshal(resp.Body(), result)
}

// base64ToHex converts a base64 transaction hash to hex form.
func base64ToHex(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
