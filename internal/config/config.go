// Package config defines all configuration for the arbitrage execution agent.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// sensitive fields overridable via ARB_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"arb-executor/pkg/types"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	DryRun   bool           `mapstructure:"dry_run"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Venues   []VenueConfig  `mapstructure:"venues"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Store    StoreConfig    `mapstructure:"store"`
	Status   StatusConfig   `mapstructure:"status"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// WalletConfig holds the Ethereum wallet(s) used for signing orders and
// on-chain redemption transactions. PrivateKey signs L1 (EIP-712) auth and
// derives L2 API keys per venue. FunderAddress is the on-chain address that
// funds orders (may differ from the signer if trading through a proxy).
type WalletConfig struct {
	PrivateKey    string              `mapstructure:"private_key"`
	SignatureType types.SignatureType `mapstructure:"signature_type"`
	FunderAddress string              `mapstructure:"funder_address"`
	ChainID       int                 `mapstructure:"chain_id"`
	RPCURL        string              `mapstructure:"rpc_url"`

	// SmartAccountAddress is set when the unreliable venue trades through a
	// separate smart-account/Safe wallet rather than the EOA above. The
	// pre-flight sizer caps size against whichever wallet actually funds
	// each leg.
	SmartAccountAddress string `mapstructure:"smart_account_address"`

	// CTFAddress and CollateralAddress identify the conditional-token
	// framework contract and its collateral (stablecoin) token on-chain,
	// used for balance reads and redemption.
	CTFAddress        string `mapstructure:"ctf_address"`
	CollateralAddress string `mapstructure:"collateral_address"`
}

// VenueConfig describes one venue's REST endpoint and credentials.
// Name must match the protocol names used in incoming ArbitOpportunity
// values (protocolA / protocolB).
type VenueConfig struct {
	Name         string `mapstructure:"name"`
	BaseURL      string `mapstructure:"base_url"`
	ApiKey       string `mapstructure:"api_key"`
	Secret       string `mapstructure:"secret"`
	Passphrase   string `mapstructure:"passphrase"`
	Reliable     bool   `mapstructure:"reliable"`
	SmartAccount bool   `mapstructure:"smart_account"`
}

// ExecutorConfig tunes the execution core. Field names mirror the constants
// named in the specification: a 2% fee buffer, a progressive discount ladder
// for unwind attempts, and the poll/cooldown windows that gate repeated
// venue calls.
type ExecutorConfig struct {
	MinTradeSize         float64         `mapstructure:"min_trade_size"`
	FeeBuffer            float64         `mapstructure:"fee_buffer"`
	DiscountLadder       []float64       `mapstructure:"discount_ladder"`
	MaxQuoteAge          time.Duration   `mapstructure:"max_quote_age"`
	MarketCooldown       time.Duration   `mapstructure:"market_cooldown"`
	ShortCooldown        time.Duration   `mapstructure:"short_cooldown"`
	FillVerifyDelay      time.Duration   `mapstructure:"fill_verify_delay"`
	FillPollInterval     time.Duration   `mapstructure:"fill_poll_interval"`
	FillPollTimeout      time.Duration   `mapstructure:"fill_poll_timeout"`
	UnwindPollInterval   time.Duration   `mapstructure:"unwind_poll_interval"`
	UnwindPollTimeout    time.Duration   `mapstructure:"unwind_poll_timeout"`
	LiquidityCapFraction float64         `mapstructure:"liquidity_cap_fraction"`
}

// StoreConfig sets where cooldown state is persisted (JSON file).
type StoreConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// StatusConfig controls the minimal read-only HTTP status endpoint.
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: ARB_PRIVATE_KEY, ARB_DRY_RUN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("ARB_PRIVATE_KEY"); key != "" {
		cfg.Wallet.PrivateKey = key
	}
	if os.Getenv("ARB_DRY_RUN") == "true" || os.Getenv("ARB_DRY_RUN") == "1" {
		cfg.DryRun = true
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in the constants named by the specification when the
// config file omits them, so a minimal YAML file is still runnable.
func (c *Config) applyDefaults() {
	e := &c.Executor
	if e.FeeBuffer == 0 {
		e.FeeBuffer = 1.02
	}
	if len(e.DiscountLadder) == 0 {
		e.DiscountLadder = []float64{0.05, 0.10, 0.20}
	}
	if e.MaxQuoteAge == 0 {
		e.MaxQuoteAge = 15 * time.Second
	}
	if e.MarketCooldown == 0 {
		e.MarketCooldown = 30 * time.Minute
	}
	if e.ShortCooldown == 0 {
		e.ShortCooldown = 5 * time.Minute
	}
	if e.FillVerifyDelay == 0 {
		e.FillVerifyDelay = 3 * time.Second
	}
	if e.UnwindPollInterval == 0 {
		e.UnwindPollInterval = 10 * time.Second
	}
	if e.UnwindPollTimeout == 0 {
		e.UnwindPollTimeout = 5 * time.Minute
	}
	if e.FillPollInterval == 0 {
		e.FillPollInterval = 2 * time.Second
	}
	if e.FillPollTimeout == 0 {
		e.FillPollTimeout = 30 * time.Second
	}
	if e.LiquidityCapFraction == 0 {
		e.LiquidityCapFraction = 0.90
	}
	if e.MinTradeSize == 0 {
		e.MinTradeSize = 2
	}
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Wallet.PrivateKey == "" {
		return fmt.Errorf("wallet.private_key is required (set ARB_PRIVATE_KEY)")
	}
	if c.Wallet.ChainID == 0 {
		return fmt.Errorf("wallet.chain_id is required (137 for polygon mainnet)")
	}
	if c.Wallet.RPCURL == "" {
		return fmt.Errorf("wallet.rpc_url is required")
	}
	if c.Wallet.CTFAddress == "" {
		return fmt.Errorf("wallet.ctf_address is required")
	}
	if c.Wallet.CollateralAddress == "" {
		return fmt.Errorf("wallet.collateral_address is required")
	}
	switch c.Wallet.SignatureType {
	case types.SigEOA, types.SigProxy, types.SigGnosisSafe:
	default:
		return fmt.Errorf("wallet.signature_type must be one of: 0 (EOA), 1 (PROXY), 2 (GNOSIS_SAFE)")
	}
	if c.Wallet.SignatureType != types.SigEOA && c.Wallet.FunderAddress == "" {
		return fmt.Errorf("wallet.funder_address is required when wallet.signature_type is 1 or 2")
	}
	if len(c.Venues) != 2 {
		return fmt.Errorf("exactly two venues must be configured, got %d", len(c.Venues))
	}
	reliableCount := 0
	for _, v := range c.Venues {
		if v.Name == "" {
			return fmt.Errorf("venues[].name is required")
		}
		if v.BaseURL == "" {
			return fmt.Errorf("venues[%s].base_url is required", v.Name)
		}
		if v.Reliable {
			reliableCount++
		}
	}
	if reliableCount != 1 {
		return fmt.Errorf("exactly one venue must be marked reliable: true, got %d", reliableCount)
	}
	if c.Executor.MinTradeSize <= 0 {
		return fmt.Errorf("executor.min_trade_size must be > 0")
	}
	if c.Executor.FeeBuffer < 1 {
		return fmt.Errorf("executor.fee_buffer must be >= 1")
	}
	return nil
}
