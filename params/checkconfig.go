package params

import (
	"errors"
	"fmt"

	"github.com/Jayke770/stablebot-worker/tokens"
)

// CheckConfig check config
func CheckConfig() (err error) {
	config := GetConfig()
	if config.Identifier == "" {
		return errors.New("must config non empty 'Identifier'")
	}
	if config.ConfigID == "" {
		return errors.New("must config non empty 'ConfigID'")
	}
	if config.Worker == nil {
		return errors.New("must config 'Worker'")
	}
	if config.Worker.PassphraseEnv == "" {
		return errors.New("must config 'Worker.PassphraseEnv'")
	}
	if err = checkChainConfig(); err != nil {
		return err
	}
	if err = checkTokenConfig(); err != nil {
		return err
	}
	if config.MongoDB == nil {
		return errors.New("must config 'MongoDB'")
	}
	if config.MongoDB.DBURL == "" || config.MongoDB.DBName == "" {
		return errors.New("must config 'MongoDB.DBURL' and 'MongoDB.DBName'")
	}
	if config.Redis == nil || config.Redis.Address == "" {
		return errors.New("must config 'Redis.Address'")
	}
	if config.Dex == nil || config.Dex.APIAddress == "" {
		return errors.New("must config 'Dex.APIAddress'")
	}
	if config.Telegram != nil && config.Telegram.BotToken == "" {
		return errors.New("must config 'Telegram.BotToken' when 'Telegram' is present")
	}
	if config.Email != nil {
		if config.Email.Server == "" || config.Email.From == "" || len(config.Email.To) == 0 {
			return errors.New("must config 'Email.Server', 'Email.From' and 'Email.To'")
		}
	}
	return nil
}

func checkChainConfig() error {
	config := GetConfig()
	if len(config.Chains) == 0 {
		return errors.New("must config at least one chain in 'Chains'")
	}
	seen := make(map[string]bool)
	for _, desc := range config.Chains {
		if desc.ChainID == "" {
			return errors.New("chain must config non empty 'ChainID'")
		}
		if seen[desc.ChainID] {
			return fmt.Errorf("duplicate chain '%v'", desc.ChainID)
		}
		seen[desc.ChainID] = true
		if !tokens.IsKnownFamily(desc.Family) {
			return fmt.Errorf("chain '%v' has unknown family '%v'", desc.ChainID, desc.Family)
		}
		if desc.Family == tokens.FamilyTON {
			if desc.RestAPI == "" {
				return fmt.Errorf("ton chain '%v' must config 'RestAPI'", desc.ChainID)
			}
		} else if desc.RPC == "" {
			return fmt.Errorf("chain '%v' must config 'RPC'", desc.ChainID)
		}
		if desc.NativeDecimals <= 0 {
			return fmt.Errorf("chain '%v' must config positive 'NativeDecimals'", desc.ChainID)
		}
	}
	return nil
}

func checkTokenConfig() error {
	config := GetConfig()
	for _, token := range config.Tokens {
		if token.ChainID == "" || token.Symbol == "" {
			return errors.New("token must config 'ChainID' and 'Symbol'")
		}
		if GetChain(token.ChainID) == nil {
			return fmt.Errorf("token '%v' references unknown chain '%v'", token.Symbol, token.ChainID)
		}
		if !token.IsNative && token.Address == "" {
			return fmt.Errorf("token '%v' must config contract 'Address'", token.Symbol)
		}
		if token.Decimals <= 0 {
			return fmt.Errorf("token '%v' must config positive 'Decimals'", token.Symbol)
		}
	}
	return nil
}
