package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/veranovak/lendivest/internal/blob/s3"
	"github.com/veranovak/lendivest/internal/cache/redis"
	"github.com/veranovak/lendivest/internal/config"
	"github.com/veranovak/lendivest/internal/confirm"
	"github.com/veranovak/lendivest/internal/domain"
	"github.com/veranovak/lendivest/internal/invest"
	"github.com/veranovak/lendivest/internal/notify"
	"github.com/veranovak/lendivest/internal/platform/marketplace"
	"github.com/veranovak/lendivest/internal/service"
	"github.com/veranovak/lendivest/internal/store/postgres"
	"github.com/veranovak/lendivest/internal/strategy"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Marketplace access
	Marketplace domain.Marketplace
	Loans       invest.LoanReader
	Confirm     domain.ConfirmationProvider // nil unless confirmation is enabled

	// Persistence
	InvestmentStore domain.InvestmentStore
	SessionStore    domain.SessionStore

	// Blob storage
	Archiver domain.SessionArchiver // nil unless S3 is enabled

	// Strategy
	Strategy strategy.Strategy

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Marketplace REST client ---
	deps.Marketplace = marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Token)

	// --- External confirmation (optional) ---
	if cfg.Confirmation.Enabled {
		deps.Confirm = confirm.NewClient(cfg.Confirmation.Endpoint, cfg.Confirmation.Token)
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.InvestmentStore = postgres.NewInvestmentStore(pool)
	deps.SessionStore = postgres.NewSessionStore(pool)

	// --- Redis loan cache (optional) ---
	var loanCache domain.LoanCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		loanCache = redis.NewLoanCache(redisClient)
	}
	deps.Loans = service.NewLoanService(deps.Marketplace, loanCache, logger)

	// --- S3 session archive (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Strategy ---
	strategyCfg, err := strategy.CompileConfig(cfg.Strategy, cfg.Marketplace.ProtectionWindow.Duration)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: compile strategy: %w", err)
	}
	registry := strategy.NewRegistry()
	registry.Register(strategy.NewPortfolioStrategy(strategyCfg, logger))
	deps.Strategy, err = registry.Get(cfg.Strategy.Name)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: strategy: %w", err)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
