// Package bridge routes chain agnostic calls to the per family chain
// adapters. The router is the single entry point the settlement engine
// and the REST API use to touch a chain.
package bridge

import (
	"strings"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
	"github.com/Jayke770/stablebot-worker/tokens/eth"
	"github.com/Jayke770/stablebot-worker/tokens/ton"
	"github.com/Jayke770/stablebot-worker/tokens/tron"
)

// Router resolves chain identifiers to adapters. Descriptors are
// immutable after construction and adapters are built per call, so the
// router is safe for concurrent use without locking.
type Router struct {
	chains map[string]*tokens.ChainDescriptor
	order  []string
}

// NewRouter builds a router over the configured chain descriptors.
// Chain identifiers are matched case insensitively.
func NewRouter(descs []*tokens.ChainDescriptor) *Router {
	router := &Router{chains: make(map[string]*tokens.ChainDescriptor, len(descs))}
	for _, desc := range descs {
		if !tokens.IsKnownFamily(desc.Family) {
			log.Warn("skip chain with unknown family", "chainID", desc.ChainID, "family", desc.Family)
			continue
		}
		key := strings.ToLower(desc.ChainID)
		if _, exist := router.chains[key]; exist {
			log.Warn("skip duplicate chain descriptor", "chainID", desc.ChainID)
			continue
		}
		router.chains[key] = desc
		router.order = append(router.order, key)
	}
	return router
}

// GetChain returns the descriptor of chainID, nil when unknown.
func (r *Router) GetChain(chainID string) *tokens.ChainDescriptor {
	return r.chains[strings.ToLower(chainID)]
}

// AllChains returns the configured descriptors in registration order.
func (r *Router) AllChains() []*tokens.ChainDescriptor {
	descs := make([]*tokens.ChainDescriptor, 0, len(r.order))
	for _, key := range r.order {
		descs = append(descs, r.chains[key])
	}
	return descs
}

func adapterOf(desc *tokens.ChainDescriptor) tokens.ChainAdapter {
	switch desc.Family {
	case tokens.FamilyEVM:
		return eth.New(desc)
	case tokens.FamilyTRON:
		return tron.New(desc)
	case tokens.FamilyTON:
		return ton.New(desc)
	default:
		return nil
	}
}

// DeriveWallet derives the wallet of mnemonic on chainID.
func (r *Router) DeriveWallet(chainID, mnemonic string) (*tokens.Wallet, error) {
	desc := r.GetChain(chainID)
	if desc == nil {
		return nil, tokens.ErrInvalidChain
	}
	return adapterOf(desc).DeriveWallet(mnemonic)
}

// GetBalance returns the token balance of address on chainID, zero for
// an unknown chain.
func (r *Router) GetBalance(chainID, address string, token *tokens.TokenConfig) float64 {
	desc := r.GetChain(chainID)
	if desc == nil {
		log.Warn("get balance on unknown chain", "chainID", chainID)
		return 0
	}
	return adapterOf(desc).GetBalance(address, token)
}

// Transfer routes a transfer to the chain adapter. An unknown chain is
// reported through the broadcast result, not an error, so callers
// handle it on the same path as a rejected broadcast.
func (r *Router) Transfer(chainID string, args *tokens.TransferArgs) *tokens.BroadcastResult {
	desc := r.GetChain(chainID)
	if desc == nil {
		return &tokens.BroadcastResult{Status: false, Message: tokens.ErrInvalidChain.Error()}
	}
	return adapterOf(desc).Transfer(args)
}

// ConfirmTransaction routes a confirmation poll to the chain adapter.
// Returns nil for an unknown chain, same as an unconfirmed transaction.
func (r *Router) ConfirmTransaction(chainID, txHash, address string) *tokens.TxRecord {
	desc := r.GetChain(chainID)
	if desc == nil {
		log.Warn("confirm transaction on unknown chain", "chainID", chainID, "txHash", txHash)
		return nil
	}
	return adapterOf(desc).ConfirmTransaction(txHash, address)
}
