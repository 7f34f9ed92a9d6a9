// Package config defines the top-level configuration for the investing engine
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by LENDIVEST_* environment variables.
type Config struct {
	Marketplace  MarketplaceConfig  `toml:"marketplace"`
	Confirmation ConfirmationConfig `toml:"confirmation"`
	Postgres     PostgresConfig     `toml:"postgres"`
	Redis        RedisConfig        `toml:"redis"`
	S3           S3Config           `toml:"s3"`
	Strategy     StrategyConfig     `toml:"strategy"`
	Invest       InvestConfig       `toml:"invest"`
	Daemon       DaemonConfig       `toml:"daemon"`
	Notify       NotifyConfig       `toml:"notify"`
	Mode         string             `toml:"mode"`
	LogLevel     string             `toml:"log_level"`
}

// MarketplaceConfig holds loan marketplace API parameters.
type MarketplaceConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
	// ProtectionWindow is how long after publication a loan stays inside
	// the investor-protection window. Zero disables protection handling.
	ProtectionWindow duration `toml:"protection_window"`
}

// ConfirmationConfig holds the external confirmation service parameters.
// When Enabled is false the engine runs without the confirmation capability.
type ConfirmationConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Token    string `toml:"token"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. The loan cache is optional;
// with Enabled false every loan lookup goes straight to the marketplace.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the session
// archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// RatingPolicyConfig is the per-rating slice of the strategy configuration.
type RatingPolicyConfig struct {
	// TargetShare is the desired portfolio fraction (0..1) for this rating.
	TargetShare float64 `toml:"target_share"`
	// MaxLoanAmount caps one investment into a loan of this rating.
	MaxLoanAmount float64 `toml:"max_loan_amount"`
	// ConfirmationRequired routes this rating through the confirmation
	// service.
	ConfirmationRequired bool `toml:"confirmation_required"`
}

// FilterConfig describes one loan filter. All set bounds must hold for the
// filter to match; zero values mean "no bound". ButRatings inverts the filter
// into a reject-unless clause on the named ratings.
type FilterConfig struct {
	Ratings         []string `toml:"ratings"`
	Purposes        []string `toml:"purposes"`
	Regions         []string `toml:"regions"`
	IncomeTypes     []string `toml:"income_types"`
	MinAmount       float64  `toml:"min_amount"`
	MaxAmount       float64  `toml:"max_amount"`
	MinInterestRate float64  `toml:"min_interest_rate"`
	MaxInterestRate float64  `toml:"max_interest_rate"`
	MinTermMonths   int      `toml:"min_term_months"`
	MaxTermMonths   int      `toml:"max_term_months"`
	MaxActiveLoans  int      `toml:"max_active_loans"`
	InsuredOnly     bool     `toml:"insured_only"`
	// ButRatings, when set, turns the filter around: a loan matching all
	// the bounds above is still accepted unless its rating is in this list.
	ButRatings []string `toml:"but_ratings"`
}

// StrategyConfig holds investment strategy parameters.
type StrategyConfig struct {
	Name string `toml:"name"`
	// MinimumInvestment is the smallest amount the engine will put into a
	// single loan, and the balance floor below which a run stops.
	MinimumInvestment float64 `toml:"minimum_investment"`
	// InvestmentStep rounds proposed amounts down to a multiple of itself.
	InvestmentStep float64 `toml:"investment_step"`
	// Ratings maps rating names (e.g. "AA") to their policies. Ratings
	// without an entry are never invested in.
	Ratings map[string]RatingPolicyConfig `toml:"ratings"`
	// AcceptFilters whitelist marketplace loans; RejectFilters blacklist.
	AcceptFilters []FilterConfig `toml:"accept_filter"`
	RejectFilters []FilterConfig `toml:"reject_filter"`
}

// InvestConfig holds investor loop tunables.
type InvestConfig struct {
	SeedWorkers  int      `toml:"seed_workers"`
	SeedAttempts int      `toml:"seed_attempts"`
	SeedBackoff  duration `toml:"seed_backoff"`
}

// DaemonConfig holds periodic-run parameters for daemon mode.
type DaemonConfig struct {
	// Cron is a robfig/cron schedule expression, e.g. "*/5 * * * *".
	Cron string `toml:"cron"`
	// RunOnStart triggers one run immediately when the daemon starts.
	RunOnStart bool `toml:"run_on_start"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Marketplace: MarketplaceConfig{
			BaseURL:          "https://api.marketplace.example/v1",
			ProtectionWindow: duration{30 * time.Minute},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "lendivest",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "lendivest-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Strategy: StrategyConfig{
			Name:              "portfolio",
			MinimumInvestment: 200,
			InvestmentStep:    200,
			Ratings: map[string]RatingPolicyConfig{
				"AAAAA": {TargetShare: 0.10, MaxLoanAmount: 600},
				"AAAA":  {TargetShare: 0.15, MaxLoanAmount: 600},
				"AAA":   {TargetShare: 0.20, MaxLoanAmount: 600},
				"AA":    {TargetShare: 0.20, MaxLoanAmount: 400},
				"A":     {TargetShare: 0.15, MaxLoanAmount: 400},
				"B":     {TargetShare: 0.10, MaxLoanAmount: 200},
				"C":     {TargetShare: 0.05, MaxLoanAmount: 200},
				"D":     {TargetShare: 0.05, MaxLoanAmount: 200, ConfirmationRequired: true},
			},
		},
		Invest: InvestConfig{
			SeedWorkers:  4,
			SeedAttempts: 3,
			SeedBackoff:  duration{500 * time.Millisecond},
		},
		Daemon: DaemonConfig{
			Cron:       "*/5 * * * *",
			RunOnStart: true,
		},
		Notify: NotifyConfig{
			Events: []string{"session_started", "investment_made", "investment_delegated", "session_finished", "error"},
		},
		Mode:     "invest",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"invest": true,
	"daemon": true,
	"dryrun": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: invest, daemon, dryrun)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Marketplace
	if c.Marketplace.BaseURL == "" {
		errs = append(errs, "marketplace: base_url must not be empty")
	}
	if c.Marketplace.Token == "" && strings.ToLower(c.Mode) != "dryrun" {
		errs = append(errs, "marketplace: token is required for mode "+c.Mode)
	}
	if c.Marketplace.ProtectionWindow.Duration < 0 {
		errs = append(errs, "marketplace: protection_window must not be negative")
	}

	// Confirmation
	if c.Confirmation.Enabled && c.Confirmation.Endpoint == "" {
		errs = append(errs, "confirmation: endpoint must not be empty when enabled")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Strategy
	if c.Strategy.MinimumInvestment <= 0 {
		errs = append(errs, "strategy: minimum_investment must be > 0")
	}
	if c.Strategy.InvestmentStep < 0 {
		errs = append(errs, "strategy: investment_step must not be negative")
	}
	if len(c.Strategy.Ratings) == 0 {
		errs = append(errs, "strategy: at least one rating policy is required")
	}
	var totalShare float64
	for rating, policy := range c.Strategy.Ratings {
		if policy.TargetShare < 0 || policy.TargetShare > 1 {
			errs = append(errs, fmt.Sprintf("strategy: rating %s target_share must be in [0, 1], got %v", rating, policy.TargetShare))
		}
		if policy.MaxLoanAmount <= 0 {
			errs = append(errs, fmt.Sprintf("strategy: rating %s max_loan_amount must be > 0", rating))
		}
		totalShare += policy.TargetShare
	}
	if totalShare > 1.0001 {
		errs = append(errs, fmt.Sprintf("strategy: rating target shares sum to %.4f, must not exceed 1", totalShare))
	}

	// Invest
	if c.Invest.SeedWorkers < 1 {
		errs = append(errs, "invest: seed_workers must be >= 1")
	}
	if c.Invest.SeedAttempts < 1 {
		errs = append(errs, "invest: seed_attempts must be >= 1")
	}

	// Daemon
	if strings.ToLower(c.Mode) == "daemon" && strings.TrimSpace(c.Daemon.Cron) == "" {
		errs = append(errs, "daemon: cron schedule is required for daemon mode")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
