package worker

import (
	"errors"
	"fmt"

	"github.com/Jayke770/stablebot-worker/mongodb"
	"github.com/Jayke770/stablebot-worker/params"
	"github.com/Jayke770/stablebot-worker/tokens"
)

// low water mark for pool wallet native balances, in USD
const lowBalanceUSD = 25.0

// minimum seconds between two balance refreshes of one user
const minRefreshSeconds = 1

// UpdateUserBalances refreshes the tracked token balances and USD
// valuations of one user. Burst refresh requests collapse into one
// through the elapsed guard on the user document.
func (s *Settler) UpdateUserBalances(userID int64) error {
	user, err := s.store.FindUser(userID)
	if err != nil {
		if errors.Is(err, mongodb.ErrItemNotFound) {
			logWorkerWarn("balance", "user not found, skip", "userID", userID)
			return nil
		}
		return err
	}
	if now()-user.UpdatedAt < minRefreshSeconds {
		return nil
	}

	userTokens, err := s.store.FindUserTokens(userID)
	if err != nil {
		return err
	}
	for _, userToken := range userTokens {
		desc := s.router.GetChain(userToken.ChainID)
		if desc == nil {
			logWorkerWarn("balance", "tracked token on unknown chain, skip", "userID", userID, "chainID", userToken.ChainID)
			continue
		}
		wallet := user.Wallet(desc.Family)
		if wallet == nil {
			continue
		}
		token := userToken.TokenConfig()
		balance := s.router.GetBalance(userToken.ChainID, wallet.Address, token)
		usdValue := 0.0
		if info, err := s.price.GetTokenInfo(token); err == nil {
			usdValue = tokens.UnitToUSD(balance, info.UnitPrice())
		} else {
			logWorkerWarn("balance", "token price lookup failed", "symbol", userToken.Symbol, "err", err)
		}
		if err := s.store.UpdateUserTokenBalance(userToken.Key, balance, usdValue); err != nil {
			logWorkerError("balance", "write token balance failed", err, "key", userToken.Key)
		}
	}
	return s.store.UpdateUserTimestamp(userID)
}

// UpdatePoolBalances refreshes the pool wallet balances on every
// configured chain and warns the operator about chains that can no
// longer pay gas for destination legs. Lookups are best effort, a zero
// can be a real zero or a fetch failure.
func (s *Settler) UpdatePoolBalances() error {
	for _, chain := range params.GetChains() {
		wallet, err := s.store.FindPoolWallet(s.configID, chain.Family)
		if err != nil {
			logWorkerWarn("balance", "no pool wallet for family", "family", chain.Family, "err", err)
			continue
		}
		native := s.router.GetBalance(chain.ChainID, wallet.Address, nil)
		nativeUSD := tokens.UnitToUSD(native, s.nativePrice(chain))
		logWorker("balance", "pool wallet balance",
			"chainID", chain.ChainID, "address", wallet.Address,
			"native", native, "usd", nativeUSD)

		if native > 0 && nativeUSD > 0 && nativeUSD < lowBalanceUSD && s.notifier != nil {
			s.notifier.Notify(
				fmt.Sprintf("low pool balance on %v", chain.ChainID),
				fmt.Sprintf("Pool wallet %v on %v holds %.6f %v (~$%.2f), top it up to keep settlements flowing.",
					wallet.Address, chain.Name, native, chain.Symbol, nativeUSD))
		}

		for _, token := range params.GetTokens() {
			if token.ChainID != chain.ChainID || token.IsNative {
				continue
			}
			balance := s.router.GetBalance(chain.ChainID, wallet.Address, token)
			logWorker("balance", "pool wallet token balance",
				"chainID", chain.ChainID, "token", token.Symbol, "balance", balance)
		}
	}
	return nil
}
