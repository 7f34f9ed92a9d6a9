package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LENDIVEST_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LENDIVEST_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Marketplace ──
	setStr(&cfg.Marketplace.BaseURL, "LENDIVEST_MARKETPLACE_BASE_URL")
	setStr(&cfg.Marketplace.Token, "LENDIVEST_MARKETPLACE_TOKEN")
	setDuration(&cfg.Marketplace.ProtectionWindow, "LENDIVEST_MARKETPLACE_PROTECTION_WINDOW")

	// ── Confirmation ──
	setBool(&cfg.Confirmation.Enabled, "LENDIVEST_CONFIRMATION_ENABLED")
	setStr(&cfg.Confirmation.Endpoint, "LENDIVEST_CONFIRMATION_ENDPOINT")
	setStr(&cfg.Confirmation.Token, "LENDIVEST_CONFIRMATION_TOKEN")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "LENDIVEST_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "LENDIVEST_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "LENDIVEST_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "LENDIVEST_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "LENDIVEST_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "LENDIVEST_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "LENDIVEST_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "LENDIVEST_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "LENDIVEST_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "LENDIVEST_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "LENDIVEST_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "LENDIVEST_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LENDIVEST_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LENDIVEST_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LENDIVEST_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LENDIVEST_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LENDIVEST_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "LENDIVEST_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "LENDIVEST_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LENDIVEST_S3_REGION")
	setStr(&cfg.S3.Bucket, "LENDIVEST_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LENDIVEST_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LENDIVEST_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LENDIVEST_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LENDIVEST_S3_FORCE_PATH_STYLE")

	// ── Strategy ──
	setStr(&cfg.Strategy.Name, "LENDIVEST_STRATEGY_NAME")
	setFloat64(&cfg.Strategy.MinimumInvestment, "LENDIVEST_STRATEGY_MINIMUM_INVESTMENT")
	setFloat64(&cfg.Strategy.InvestmentStep, "LENDIVEST_STRATEGY_INVESTMENT_STEP")

	// ── Invest ──
	setInt(&cfg.Invest.SeedWorkers, "LENDIVEST_INVEST_SEED_WORKERS")
	setInt(&cfg.Invest.SeedAttempts, "LENDIVEST_INVEST_SEED_ATTEMPTS")
	setDuration(&cfg.Invest.SeedBackoff, "LENDIVEST_INVEST_SEED_BACKOFF")

	// ── Daemon ──
	setStr(&cfg.Daemon.Cron, "LENDIVEST_DAEMON_CRON")
	setBool(&cfg.Daemon.RunOnStart, "LENDIVEST_DAEMON_RUN_ON_START")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LENDIVEST_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LENDIVEST_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LENDIVEST_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LENDIVEST_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "LENDIVEST_MODE")
	setStr(&cfg.LogLevel, "LENDIVEST_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
