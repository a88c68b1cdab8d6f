package worker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jayke770/stablebot-worker/mongodb"
	"github.com/Jayke770/stablebot-worker/queue"
	"github.com/Jayke770/stablebot-worker/tokens"
)

// amountTolerance absorbs float rounding when comparing a confirmed
// deposit amount against the claimed one.
const amountTolerance = 1e-9

// Settler runs the bridge settlement state machine. A settlement
// attempt either completes the bridge or leaves it untouched in
// pending, there is no failed state and no partial progress besides
// the persisted withdraw tx hash.
type Settler struct {
	store     BridgeStore
	router    ChainRouter
	price     PriceOracle
	messenger Messenger
	notifier  OperatorNotifier
	configID  string
}

// NewSettler build a settler. messenger and notifier may be nil when
// the corresponding channel is not configured.
func NewSettler(store BridgeStore, router ChainRouter, price PriceOracle, messenger Messenger, notifier OperatorNotifier, configID string) *Settler {
	return &Settler{
		store:     store,
		router:    router,
		price:     price,
		messenger: messenger,
		notifier:  notifier,
		configID:  configID,
	}
}

// Settle run one settlement attempt for bridgeID. A nil return means
// the attempt is finished, either settled or intentionally skipped. A
// non nil return aborts the attempt with the bridge left pending, the
// periodic scan retries it later.
func (s *Settler) Settle(bridgeID string) error {
	bridge, err := s.store.FindBridge(bridgeID)
	if err != nil {
		if errors.Is(err, mongodb.ErrItemNotFound) {
			logWorkerWarn("settle", "bridge not found, skip", "bridgeID", bridgeID)
			return nil
		}
		return err
	}
	if bridge.Status != mongodb.StatusPending {
		logWorker("settle", "bridge already settled, skip", "bridgeID", bridgeID, "status", bridge.Status)
		return nil
	}

	srcDesc := s.router.GetChain(bridge.SrcChainID)
	destDesc := s.router.GetChain(bridge.DestChainID)
	if srcDesc == nil || destDesc == nil {
		logWorkerError("settle", "bridge references unknown chain", tokens.ErrInvalidChain,
			"bridgeID", bridgeID, "srcChainID", bridge.SrcChainID, "destChainID", bridge.DestChainID)
		return tokens.ErrInvalidChain
	}
	srcPool, err := s.store.FindPoolWallet(s.configID, srcDesc.Family)
	if err != nil {
		logWorkerError("settle", "find source pool wallet failed", err, "bridgeID", bridgeID, "family", srcDesc.Family)
		return err
	}
	destPool, err := s.store.FindPoolWallet(s.configID, destDesc.Family)
	if err != nil {
		logWorkerError("settle", "find dest pool wallet failed", err, "bridgeID", bridgeID, "family", destDesc.Family)
		return err
	}

	s.editProgress(bridge, "🔎 Verifying your deposit ...")

	deposit := s.router.ConfirmTransaction(bridge.SrcChainID, bridge.DepositTxHash, srcPool.Address)
	if deposit == nil {
		logWorkerWarn("settle", "deposit not confirmed yet", "bridgeID", bridgeID, "txHash", bridge.DepositTxHash)
		return fmt.Errorf("deposit %v not confirmed", bridge.DepositTxHash)
	}
	if !deposit.Success {
		logWorkerWarn("settle", "deposit transaction failed on chain", "bridgeID", bridgeID, "txHash", bridge.DepositTxHash)
		return fmt.Errorf("deposit %v failed on chain", bridge.DepositTxHash)
	}
	if err := s.validateDeposit(bridge, deposit, srcPool.Address); err != nil {
		logWorkerError("settle", "deposit validation failed", err, "bridgeID", bridgeID, "txHash", bridge.DepositTxHash)
		return err
	}
	srcSeconds := now() - bridge.InitTime

	destAmount, err := s.resolveDestAmount(bridge)
	if err != nil {
		logWorkerError("settle", "resolve dest amount failed", err, "bridgeID", bridgeID)
		return err
	}

	s.editProgress(bridge, "💸 Sending funds on the destination chain ...")
	destStart := time.Now()

	txHash := bridge.WithdrawTxHash
	var broadcastFee float64
	if txHash != "" {
		// an earlier attempt already paid out, confirm that instead of
		// broadcasting a second payout
		logWorker("settle", "found earlier withdraw tx, re-confirming", "bridgeID", bridgeID, "txHash", txHash)
	} else {
		result := s.router.Transfer(bridge.DestChainID, &tokens.TransferArgs{
			Wallet:          destPool,
			Token:           bridge.DestToken.TokenConfig(),
			ReceiverAddress: bridge.ReceiverAddress,
			AmountInUnit:    destAmount,
		})
		if !result.Status {
			logWorkerWarn("settle", "destination transfer rejected", "bridgeID", bridgeID, "message", result.Message)
			return fmt.Errorf("destination transfer rejected: %v", result.Message)
		}
		txHash = result.TxHash
		broadcastFee = result.Fee
		if err := s.store.AttachWithdrawTx(bridgeID, txHash); err != nil {
			// the payout is on chain already, keep going and settle
			logWorkerError("settle", "persist withdraw tx failed", err, "bridgeID", bridgeID, "txHash", txHash)
		}
	}

	s.editProgress(bridge, "⏳ Waiting for destination confirmation ...")

	// the payout leaves the pool wallet, so that is the account the
	// transaction shows up on (for tokens the receiver's main account
	// never sees it)
	record := s.router.ConfirmTransaction(bridge.DestChainID, txHash, destPool.Address)
	if record == nil {
		// the hash is persisted, retrying right away re-confirms without
		// a second broadcast
		logWorkerWarn("settle", "withdraw not confirmed yet", "bridgeID", bridgeID, "txHash", txHash)
		return fmt.Errorf("withdraw %v not confirmed: %w", txHash, queue.ErrRetryNow)
	}
	if !record.Success {
		// the payout reverted, clear the hash so the next attempt may
		// broadcast again
		if err := s.store.AttachWithdrawTx(bridgeID, ""); err != nil {
			logWorkerError("settle", "clear withdraw tx failed", err, "bridgeID", bridgeID)
		}
		logWorkerWarn("settle", "withdraw transaction failed on chain", "bridgeID", bridgeID, "txHash", txHash)
		return fmt.Errorf("withdraw %v failed on chain", txHash)
	}

	destFee := record.FeeInNative
	if destFee == 0 {
		destFee = broadcastFee
	}
	items := &mongodb.BridgeCompleteItems{
		WithdrawTxHash:   txHash,
		DestAmountInUnit: destAmount,
		SrcFeeInUnit:     deposit.FeeInNative,
		DestFeeInUnit:    destFee,
		SrcSeconds:       srcSeconds,
		DestSeconds:      int64(time.Since(destStart).Seconds()),
		Timestamp:        now(),
	}
	if err := s.store.CompleteBridge(bridgeID, items); err != nil {
		if errors.Is(err, mongodb.ErrItemNotFound) {
			logWorker("settle", "bridge completed concurrently, skip", "bridgeID", bridgeID)
			return nil
		}
		return err
	}
	if err := s.store.IncTotalBridgeTx(s.configID); err != nil {
		logWorkerError("settle", "bump settled counter failed", err, "configID", s.configID)
	}

	s.editProgress(bridge, fmt.Sprintf(
		"✅ Bridge completed!\n%v %v → %v %v\n<a href=\"%v\">destination transaction</a>",
		bridge.SrcAmountInUnit, bridge.SrcToken.Symbol, destAmount, bridge.DestToken.Symbol,
		destDesc.TxLink(txHash)))
	s.notifyCompleted(bridge, srcDesc, destDesc, items)

	logWorker("settle", "bridge settled", "bridgeID", bridgeID,
		"srcChainID", bridge.SrcChainID, "destChainID", bridge.DestChainID,
		"destAmount", destAmount, "wdTxHash", txHash,
		"srcSeconds", items.SrcSeconds, "destSeconds", items.DestSeconds)
	return nil
}

// validateDeposit cross checks the confirmed deposit against the
// claimed bridge fields. Applied to every chain family, a hash of
// someone else's transaction or an underpaid deposit never settles.
func (s *Settler) validateDeposit(bridge *mongodb.MgoBridge, deposit *tokens.TxRecord, poolAddress string) error {
	if !strings.EqualFold(deposit.FromAddress, bridge.SenderAddress) {
		return fmt.Errorf("deposit sender %v does not match claimed %v", deposit.FromAddress, bridge.SenderAddress)
	}
	if !strings.EqualFold(deposit.ToAddress, poolAddress) {
		return fmt.Errorf("deposit recipient %v is not the pool wallet %v", deposit.ToAddress, poolAddress)
	}
	if deposit.TokenAmount < bridge.SrcAmountInUnit*(1-amountTolerance) {
		return fmt.Errorf("deposit amount %v below claimed %v", deposit.TokenAmount, bridge.SrcAmountInUnit)
	}
	return nil
}

// resolveDestAmount returns the destination payout in dest token units.
// Bridges created with a precomputed amount use it as is, otherwise the
// USD value of the deposit is revalued at the current dest token price.
func (s *Settler) resolveDestAmount(bridge *mongodb.MgoBridge) (float64, error) {
	if bridge.DestAmountInUnit > 0 {
		return bridge.DestAmountInUnit, nil
	}
	usdAmount := bridge.SrcAmountInUSD
	if usdAmount <= 0 {
		srcInfo, err := s.price.GetTokenInfo(bridge.SrcToken.TokenConfig())
		if err != nil {
			return 0, err
		}
		usdAmount = tokens.UnitToUSD(bridge.SrcAmountInUnit, srcInfo.UnitPrice())
	}
	destInfo, err := s.price.GetTokenInfo(bridge.DestToken.TokenConfig())
	if err != nil {
		return 0, err
	}
	destAmount := tokens.USDToUnit(usdAmount, destInfo.UnitPrice())
	if destAmount <= 0 {
		return 0, fmt.Errorf("dest token %v has no usable price", bridge.DestToken.Symbol)
	}
	return destAmount, nil
}

// editProgress rewrites the user facing progress message, best effort.
func (s *Settler) editProgress(bridge *mongodb.MgoBridge, text string) {
	if s.messenger == nil || bridge.ChatID == 0 || bridge.MessageID == 0 {
		return
	}
	if err := s.messenger.EditMessage(bridge.ChatID, bridge.MessageID, text); err != nil {
		logWorkerWarn("settle", "edit progress message failed", "bridgeID", bridge.BridgeID, "err", err)
	}
}

// notifyCompleted sends the operator completion notice with both leg
// fees valued in USD at the current native token prices.
func (s *Settler) notifyCompleted(bridge *mongodb.MgoBridge, srcDesc, destDesc *tokens.ChainDescriptor, items *mongodb.BridgeCompleteItems) {
	if s.notifier == nil {
		return
	}
	srcFeeUSD := tokens.UnitToUSD(items.SrcFeeInUnit, s.nativePrice(srcDesc))
	destFeeUSD := tokens.UnitToUSD(items.DestFeeInUnit, s.nativePrice(destDesc))
	subject := fmt.Sprintf("bridge %v settled", bridge.BridgeID)
	text := fmt.Sprintf(
		"Bridge %v settled\n%v %v (%v) -> %v %v (%v)\ndeposit %v\npayout %v\nfees: src %.6f %v ($%.4f), dest %.6f %v ($%.4f)\nelapsed: src %vs, dest %vs",
		bridge.BridgeID,
		bridge.SrcAmountInUnit, bridge.SrcToken.Symbol, srcDesc.Name,
		items.DestAmountInUnit, bridge.DestToken.Symbol, destDesc.Name,
		srcDesc.TxLink(bridge.DepositTxHash),
		destDesc.TxLink(items.WithdrawTxHash),
		items.SrcFeeInUnit, srcDesc.Symbol, srcFeeUSD,
		items.DestFeeInUnit, destDesc.Symbol, destFeeUSD,
		items.SrcSeconds, items.DestSeconds)
	s.notifier.Notify(subject, text)
}

// nativePrice looks up the chain's native token USD price, zero when
// the oracle has no answer.
func (s *Settler) nativePrice(desc *tokens.ChainDescriptor) float64 {
	info, err := s.price.GetTokenInfo(&tokens.TokenConfig{
		ChainID:  desc.ChainID,
		Address:  desc.NativeAddress,
		Symbol:   desc.Symbol,
		Decimals: desc.NativeDecimals,
		IsNative: true,
	})
	if err != nil {
		logWorkerWarn("settle", "native price lookup failed", "chainID", desc.ChainID, "err", err)
		return 0
	}
	return info.UnitPrice()
}
