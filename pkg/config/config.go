package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the association server configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Chains      []ChainConfig     `yaml:"chains" validate:"required,min=1,dive"`
	Association AssociationConfig `yaml:"association"`
	Wallet      WalletConfig      `yaml:"wallet"`
	Keys        KeysConfig        `yaml:"keys"`
	Auth        AuthConfig        `yaml:"auth"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"associations" validate:"required"`
	SSLMode  string `yaml:"ssl_mode" default:"disable" validate:"oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `yaml:"max_open_conns" default:"10" validate:"min=1"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" default:"5m"`
}

// ChainConfig describes one chain the server can verify and submit on.
type ChainConfig struct {
	ChainID          uint64        `yaml:"chain_id" validate:"required"`
	RPCURL           string        `yaml:"rpc_url" validate:"required,url"`
	AssociationStore string        `yaml:"association_store" validate:"required,eth_addr"`
	SubmissionMode   string        `yaml:"submission_mode" default:"direct" validate:"oneof=direct relay"`
	RelayerKeyEnv    string        `yaml:"relayer_key_env"`
	GasLimit         uint64        `yaml:"gas_limit" default:"300000"`
	MaxGasPrice      string        `yaml:"max_gas_price" default:"100000000000" validate:"omitempty,number"`
	CallTimeout      time.Duration `yaml:"call_timeout" default:"15s"`
	Relay            RelayConfig   `yaml:"relay"`
}

// RelayConfig contains ERC-4337 bundler settings for relay submissions
type RelayConfig struct {
	BundlerURL       string `yaml:"bundler_url" validate:"omitempty,url"`
	EntryPoint       string `yaml:"entry_point" default:"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789" validate:"omitempty,eth_addr"`
	Account          string `yaml:"account" validate:"omitempty,eth_addr"`
	OwnerKeyEnv      string `yaml:"owner_key_env"`
	PaymasterAndData string `yaml:"paymaster_and_data" validate:"omitempty,hexadecimal"`
}

// AssociationConfig contains typed-data domain and signing preferences
type AssociationConfig struct {
	DomainName      string   `yaml:"domain_name" default:"AssociatedAccounts" validate:"required"`
	DomainVersion   string   `yaml:"domain_version" default:"1" validate:"required"`
	SigningMethods  []string `yaml:"signing_methods" validate:"dive,oneof=raw-digest typed-v4 typed-v3"`
	PreferredMethod string   `yaml:"preferred_method" validate:"omitempty,oneof=raw-digest typed-v4 typed-v3"`
}

// WalletConfig selects the signing backend used for managed parties
type WalletConfig struct {
	Type   string `yaml:"type" default:"key" validate:"oneof=key rpc"`
	RPCURL string `yaml:"rpc_url" validate:"omitempty,url"`
}

// KeysConfig describes where managed signing keys come from
type KeysConfig struct {
	MasterKeyEnv string         `yaml:"master_key_env" default:"ASSOCIATION_MASTER_KEY"`
	SeedEnv      string         `yaml:"seed_env"`
	DeriveLabels []string       `yaml:"derive_labels"`
	Encrypted    []EncryptedKey `yaml:"encrypted" validate:"dive"`
}

// EncryptedKey is a private key sealed with the master key
type EncryptedKey struct {
	Address    string `yaml:"address" validate:"required,eth_addr"`
	Ciphertext string `yaml:"ciphertext" validate:"required,base64"`
}

// AuthConfig contains JWT/JWKS settings for the HTTP API
type AuthConfig struct {
	JWKSUrl  string `yaml:"jwks_url" validate:"omitempty,url"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// MonitoringConfig contains metrics settings
type MonitoringConfig struct {
	Enabled     bool   `yaml:"enabled" default:"true"`
	MetricsPath string `yaml:"metrics_path" default:"/metrics"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// Load loads configuration from file, expanding ${VAR} references from the environment
func Load(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes, defaults and validates a YAML configuration document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	if cfg.Wallet.Type == "rpc" && cfg.Wallet.RPCURL == "" {
		return fmt.Errorf("wallet.rpc_url is required for rpc wallets")
	}

	seen := make(map[uint64]struct{}, len(cfg.Chains))
	for _, chain := range cfg.Chains {
		if _, ok := seen[chain.ChainID]; ok {
			return fmt.Errorf("duplicate chain_id %d", chain.ChainID)
		}
		seen[chain.ChainID] = struct{}{}

		if chain.SubmissionMode == "relay" {
			if chain.Relay.BundlerURL == "" || chain.Relay.Account == "" {
				return fmt.Errorf("chain %d: relay mode requires relay.bundler_url and relay.account", chain.ChainID)
			}
		}
	}
	return nil
}

// Chain returns the configuration for chainID, if present.
func (c *Config) Chain(chainID uint64) (ChainConfig, bool) {
	for _, chain := range c.Chains {
		if chain.ChainID == chainID {
			return chain, true
		}
	}
	return ChainConfig{}, false
}

// GetConnectionString returns a PostgreSQL DSN for the database config
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}
