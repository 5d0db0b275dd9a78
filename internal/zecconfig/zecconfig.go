// Package zecconfig loads the YAML (or JSON) configuration file that
// drives the coordinator, relayer, and CLI: network selection, node
// RPC/explorer endpoints, database location, and relayer settings.
package zecconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klingon-htlc/zcash-htlc/internal/zecnet"
)

// EnvVar is the environment variable used to override the config file
// path during discovery.
const EnvVar = "ZCASH_CONFIG"

// Config is the full configuration surface.
type Config struct {
	Network                string          `yaml:"network" json:"network"`
	RPCURL                 string          `yaml:"rpc_url" json:"rpc_url"`
	RPCUser                string          `yaml:"rpc_user,omitempty" json:"rpc_user,omitempty"`
	RPCPassword            string          `yaml:"rpc_password,omitempty" json:"rpc_password,omitempty"`
	ExplorerAPI            string          `yaml:"explorer_api,omitempty" json:"explorer_api,omitempty"`
	DatabaseURL            string          `yaml:"database_url" json:"database_url"`
	DatabaseMaxConnections int             `yaml:"database_max_connections,omitempty" json:"database_max_connections,omitempty"`
	Relayer                *RelayerConfig  `yaml:"relayer,omitempty" json:"relayer,omitempty"`
}

// RelayerConfig configures the automated relayer process.
type RelayerConfig struct {
	HotWalletPrivkey  string `yaml:"hot_wallet_privkey" json:"hot_wallet_privkey"`
	HotWalletAddress  string `yaml:"hot_wallet_address" json:"hot_wallet_address"`
	MaxTxPerBatch     int    `yaml:"max_tx_per_batch" json:"max_tx_per_batch"`
	PollIntervalSecs  int    `yaml:"poll_interval_secs" json:"poll_interval_secs"`
	MaxRetryAttempts  int    `yaml:"max_retry_attempts" json:"max_retry_attempts"`
	MinConfirmations  int    `yaml:"min_confirmations" json:"min_confirmations"`
	NetworkFeeZEC     string `yaml:"network_fee_zec" json:"network_fee_zec"`
}

// DefaultDatabaseMaxConnections is used when the field is left zero in
// the config file.
const DefaultDatabaseMaxConnections = 10

// candidateNames are the bare config file names tried at each
// discovery location, in order.
var candidateNames = []string{"zcash-config.yaml", "zcash-config.json"}

// Load resolves and parses the configuration.
//
// Discovery order: explicit path (if non-empty) → $ZCASH_CONFIG → ./zcash-config.{yaml,json}
// → ../zcash-config.{yaml,json}.
func Load(explicitPath string) (*Config, error) {
	path, err := resolvePath(explicitPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("zecconfig: read %s: %w", path, err)
	}

	cfg := &Config{}
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("zecconfig: parse json %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("zecconfig: parse yaml %s: %w", path, err)
		}
	}

	if cfg.DatabaseMaxConnections == 0 {
		cfg.DatabaseMaxConnections = DefaultDatabaseMaxConnections
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(explicitPath string) (string, error) {
	if explicitPath != "" {
		if fileExists(explicitPath) {
			return explicitPath, nil
		}
		return "", fmt.Errorf("zecconfig: config file not found: %s", explicitPath)
	}

	if envPath := os.Getenv(EnvVar); envPath != "" {
		if fileExists(envPath) {
			return envPath, nil
		}
		return "", fmt.Errorf("zecconfig: %s points to missing file: %s", EnvVar, envPath)
	}

	for _, dir := range []string{".", ".."} {
		for _, name := range candidateNames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("zecconfig: no config file found in discovery path (explicit path, $%s, ./, ../)", EnvVar)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Validate checks required fields and that Network names a known
// network.
func (c *Config) Validate() error {
	if _, ok := zecnet.ParseNetwork(c.Network); !ok {
		return fmt.Errorf("zecconfig: invalid network %q", c.Network)
	}
	if c.RPCURL == "" {
		return fmt.Errorf("zecconfig: rpc_url is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("zecconfig: database_url is required")
	}
	return nil
}

// NetworkValue parses Network into a zecnet.Network.
func (c *Config) NetworkValue() zecnet.Network {
	n, _ := zecnet.ParseNetwork(c.Network)
	return n
}

// ExplorerURL returns ExplorerAPI if set, else the network's default
// explorer endpoint.
func (c *Config) ExplorerURL() string {
	if c.ExplorerAPI != "" {
		return c.ExplorerAPI
	}
	if c.NetworkValue() == zecnet.Testnet {
		return "https://explorer.testnet.z.cash/api"
	}
	return "https://api.zcha.in"
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("zecconfig: create directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("zecconfig: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("zecconfig: write %s: %w", path, err)
	}
	return nil
}
</content>
</invoke>
