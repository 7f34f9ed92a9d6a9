package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "daemon"
log_level = "debug"

[marketplace]
base_url = "https://marketplace.test/v1"
token = "secret"
protection_window = "1h"

[strategy.ratings.AA]
target_share = 0.6
max_loan_amount = 1000

[strategy.ratings.B]
target_share = 0.4
max_loan_amount = 400
confirmation_required = true

[[strategy.accept_filter]]
min_interest_rate = 4.0
insured_only = true

[daemon]
cron = "*/10 * * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "daemon", cfg.Mode)
	assert.Equal(t, "https://marketplace.test/v1", cfg.Marketplace.BaseURL)
	assert.Equal(t, time.Hour, cfg.Marketplace.ProtectionWindow.Duration)
	assert.Equal(t, "*/10 * * * *", cfg.Daemon.Cron)

	// The TOML ratings table replaces the default table wholesale.
	require.Len(t, cfg.Strategy.Ratings, 2)
	assert.True(t, cfg.Strategy.Ratings["B"].ConfirmationRequired)
	require.Len(t, cfg.Strategy.AcceptFilters, 1)
	assert.True(t, cfg.Strategy.AcceptFilters[0].InsuredOnly)

	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Invest.SeedWorkers)

	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LENDIVEST_MARKETPLACE_TOKEN", "env-secret")
	t.Setenv("LENDIVEST_POSTGRES_PASSWORD", "env-password")
	t.Setenv("LENDIVEST_MODE", "dryrun")
	t.Setenv("LENDIVEST_INVEST_SEED_BACKOFF", "2s")
	t.Setenv("LENDIVEST_NOTIFY_EVENTS", "investment_made, error")

	path := writeConfig(t, `
[marketplace]
base_url = "https://marketplace.test/v1"
token = "file-secret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Marketplace.Token, "environment wins over the file")
	assert.Equal(t, "env-password", cfg.Postgres.Password)
	assert.Equal(t, "dryrun", cfg.Mode)
	assert.Equal(t, 2*time.Second, cfg.Invest.SeedBackoff.Duration)
	assert.Equal(t, []string{"investment_made", "error"}, cfg.Notify.Events)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "panic"
	cfg.LogLevel = "loud"
	cfg.Marketplace.BaseURL = ""
	cfg.Strategy.MinimumInvestment = 0
	cfg.Strategy.Ratings["AA"] = RatingPolicyConfig{TargetShare: 1.5, MaxLoanAmount: 0}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "unknown mode")
	assert.Contains(t, msg, "unknown log_level")
	assert.Contains(t, msg, "base_url")
	assert.Contains(t, msg, "minimum_investment")
	assert.Contains(t, msg, "target_share")
	assert.Contains(t, msg, "max_loan_amount")
}

func TestValidateDaemonNeedsCron(t *testing.T) {
	cfg := Defaults()
	cfg.Marketplace.Token = "secret"
	cfg.Mode = "daemon"
	cfg.Daemon.Cron = " "

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cron")
}

func TestValidateShareSum(t *testing.T) {
	cfg := Defaults()
	cfg.Marketplace.Token = "secret"
	cfg.Strategy.Ratings = map[string]RatingPolicyConfig{
		"A": {TargetShare: 0.7, MaxLoanAmount: 400},
		"B": {TargetShare: 0.7, MaxLoanAmount: 400},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum")
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Marketplace.Token = "secret"
	cfg.Postgres.Password = "hunter2"
	cfg.Notify.TelegramToken = "bot-token"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Marketplace.Token)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Notify.TelegramToken)

	assert.Equal(t, "secret", cfg.Marketplace.Token, "the original must stay intact")
	red.Strategy.Ratings["A"] = RatingPolicyConfig{}
	assert.NotEqual(t, cfg.Strategy.Ratings["A"], red.Strategy.Ratings["A"])
}
