// Package params loads and serves the worker configuration. The config
// is decoded once from a toml file at startup and is read only after
// that, accessors never lock.
package params

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

const (
	defaultAPIPort     = 11556
	defaultConcurrency = 50
	defaultScanSeconds = 60
)

var (
	workerConfig      *WorkerConfig
	loadConfigStarter sync.Once
)

// WorkerConfig config items (decode from toml file)
type WorkerConfig struct {
	Identifier string
	ConfigID   string
	Worker     *JobConfig
	Chains     []*tokens.ChainDescriptor
	Tokens     []*tokens.TokenConfig
	MongoDB    *MongoDBConfig
	Redis      *RedisConfig
	Dex        *DexConfig
	Telegram   *TelegramConfig  `toml:",omitempty" json:",omitempty"`
	Email      *EmailConfig     `toml:",omitempty" json:",omitempty"`
	APIServer  *APIServerConfig `toml:",omitempty" json:",omitempty"`
}

// JobConfig settlement job config
type JobConfig struct {
	Concurrency     int
	ScanSeconds     int
	PassphraseEnv   string // env var holding the mnemonic cipher passphrase
	StableSymbols   []string
	OperatorChatIDs []int64 `toml:",omitempty" json:",omitempty"`
}

// MongoDBConfig mongodb config
type MongoDBConfig struct {
	DBURL    string
	DBName   string
	UserName string `json:"-"`
	Password string `json:"-"`
}

// RedisConfig redis config
type RedisConfig struct {
	Address  string
	Password string `json:"-"`
	DBIndex  int    `toml:",omitempty"`
}

// DexConfig price oracle config
type DexConfig struct {
	APIAddress string
	APIKey     string `json:"-"`
}

// TelegramConfig telegram bot config
type TelegramConfig struct {
	APIAddress string `toml:",omitempty"` // defaults to the public bot api
	BotToken   string `json:"-"`
}

// EmailConfig operator email config
type EmailConfig struct {
	Server   string
	Port     int
	From     string
	FromName string `toml:",omitempty"`
	Password string `json:"-"`
	To       []string
}

// APIServerConfig api service config
type APIServerConfig struct {
	Port             int
	AllowedOrigins   []string
	MaxRequestsLimit int `toml:",omitempty"`
}

// GetConfig get worker config
func GetConfig() *WorkerConfig {
	return workerConfig
}

// SetConfig set worker config
func SetConfig(config *WorkerConfig) {
	workerConfig = config
}

// GetIdentifier get identifier
func GetIdentifier() string {
	return GetConfig().Identifier
}

// GetConfigID get the bridge config document id this worker serves
func GetConfigID() string {
	return GetConfig().ConfigID
}

// GetConcurrency number of settlement workers
func GetConcurrency() int {
	if GetConfig().Worker.Concurrency > 0 {
		return GetConfig().Worker.Concurrency
	}
	return defaultConcurrency
}

// GetScanSeconds pending bridge scan interval in seconds
func GetScanSeconds() int {
	if GetConfig().Worker.ScanSeconds > 0 {
		return GetConfig().Worker.ScanSeconds
	}
	return defaultScanSeconds
}

// GetAPIPort get api service port
func GetAPIPort() int {
	if GetConfig().APIServer != nil && GetConfig().APIServer.Port != 0 {
		return GetConfig().APIServer.Port
	}
	return defaultAPIPort
}

// GetChains get configured chain descriptors
func GetChains() []*tokens.ChainDescriptor {
	return GetConfig().Chains
}

// GetChain get the descriptor of chainID, nil when not configured
func GetChain(chainID string) *tokens.ChainDescriptor {
	for _, desc := range GetConfig().Chains {
		if strings.EqualFold(desc.ChainID, chainID) {
			return desc
		}
	}
	return nil
}

// GetTokens get the default token list
func GetTokens() []*tokens.TokenConfig {
	return GetConfig().Tokens
}

// FindToken find a configured token by chain and contract address
func FindToken(chainID, address string) *tokens.TokenConfig {
	for _, token := range GetConfig().Tokens {
		if strings.EqualFold(token.ChainID, chainID) && strings.EqualFold(token.Address, address) {
			return token
		}
	}
	return nil
}

// IsStableSymbol reports whether symbol is a configured stable token,
// whose unit price is pinned to one dollar without a dex lookup.
func IsStableSymbol(symbol string) bool {
	for _, stable := range GetConfig().Worker.StableSymbols {
		if strings.EqualFold(stable, symbol) {
			return true
		}
	}
	return false
}

// LoadConfig load and check the config file, fatal on any problem
func LoadConfig(configFile string) *WorkerConfig {
	loadConfigStarter.Do(func() {
		if configFile == "" {
			log.Fatalf("LoadConfig error: no config file specified")
		}
		log.Println("Config file is", configFile)
		if _, err := os.Stat(configFile); err != nil {
			log.Fatalf("LoadConfig error: config file %v not exist", configFile)
		}
		config := &WorkerConfig{}
		if _, err := toml.DecodeFile(configFile, &config); err != nil {
			log.Fatalf("LoadConfig error (toml DecodeFile): %v", err)
		}
		SetConfig(config)
		bs, _ := json.MarshalIndent(config, "", "  ")
		log.Println("LoadConfig finished.", string(bs))
		if err := CheckConfig(); err != nil {
			log.Fatalf("Check config failed. %v", err)
		}
		log.Info("Check config success", "configFile", configFile)
	})
	return workerConfig
}
