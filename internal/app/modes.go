package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
	"github.com/veranovak/lendivest/internal/invest"
)

// InvestMode runs one investment session against the live marketplace and
// persists the result.
func (a *App) InvestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting invest mode")
	return a.runSession(ctx, deps, false)
}

// DryRunMode runs one session with the decision protocol short-circuited, so
// every recommendation is recorded as if invested but no money moves.
func (a *App) DryRunMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting dry-run mode")
	return a.runSession(ctx, deps, true)
}

// DaemonMode schedules investment sessions on the configured cron expression
// and blocks until the context is cancelled. Overlapping runs are skipped.
func (a *App) DaemonMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting daemon mode",
		slog.String("cron", a.cfg.Daemon.Cron),
		slog.Bool("run_on_start", a.cfg.Daemon.RunOnStart),
	)

	a.logStartupState(ctx, deps)

	if a.cfg.Daemon.RunOnStart {
		if err := a.runSession(ctx, deps, false); err != nil {
			a.logger.ErrorContext(ctx, "initial session failed",
				slog.String("error", err.Error()),
			)
		}
	}

	clog := cronLogger{logger: a.logger.With(slog.String("component", "cron"))}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(clog),
		cron.Recover(clog),
	))
	_, err := c.AddFunc(a.cfg.Daemon.Cron, func() {
		if err := a.runSession(ctx, deps, false); err != nil {
			a.logger.ErrorContext(ctx, "scheduled session failed",
				slog.String("error", err.Error()),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("app: invalid cron expression %q: %w", a.cfg.Daemon.Cron, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// runSession executes one investor run and persists its outcome. A run error
// does not suppress persistence: a halted run with a partial result is exactly
// the one the operator needs recorded.
func (a *App) runSession(ctx context.Context, deps *Dependencies, dryRun bool) error {
	protocol := invest.NewProtocol(deps.Marketplace, deps.Confirm, dryRun, a.logger)
	investor := invest.New(
		deps.Marketplace,
		deps.Loans,
		deps.Strategy,
		protocol,
		deps.Notifier,
		invest.Config{
			MinimumInvestment: decimal.NewFromFloat(a.cfg.Strategy.MinimumInvestment),
			SeedWorkers:       a.cfg.Invest.SeedWorkers,
			SeedAttempts:      a.cfg.Invest.SeedAttempts,
			SeedBackoff:       a.cfg.Invest.SeedBackoff.Duration,
		},
		a.logger,
	)

	res, runErr := investor.Run(ctx)
	if res == nil {
		return runErr
	}

	a.logger.InfoContext(ctx, "session finished",
		slog.String("session_id", res.SessionID.String()),
		slog.Int("investments", len(res.Investments)),
		slog.String("starting_balance", res.StartingBalance.String()),
		slog.String("final_balance", res.FinalBalance.String()),
		slog.Bool("dry_run", dryRun),
	)

	if err := a.persistResult(ctx, deps, res, dryRun); err != nil {
		if runErr != nil {
			return errors.Join(runErr, err)
		}
		return err
	}
	return runErr
}

// persistResult records the session and its investments in the database and,
// when object storage is configured, archives the full report.
func (a *App) persistResult(ctx context.Context, deps *Dependencies, res *invest.Result, dryRun bool) error {
	sess := domain.Session{
		ID:              res.SessionID,
		StartedAt:       res.StartedAt,
		FinishedAt:      res.FinishedAt,
		StartingBalance: res.StartingBalance,
		FinalBalance:    res.FinalBalance,
		InvestedTotal:   sumAmounts(res.Investments),
		InvestmentCount: len(res.Investments),
		DryRun:          dryRun,
	}

	if err := deps.SessionStore.Create(ctx, sess); err != nil {
		return fmt.Errorf("app: persist session: %w", err)
	}
	if err := deps.SessionStore.Finish(ctx, sess); err != nil {
		return fmt.Errorf("app: finish session: %w", err)
	}
	if len(res.Investments) > 0 {
		if err := deps.InvestmentStore.InsertBatch(ctx, sess.ID, res.Investments); err != nil {
			return fmt.Errorf("app: persist investments: %w", err)
		}
	}

	if deps.Archiver != nil {
		path, err := deps.Archiver.ArchiveSession(ctx, domain.SessionReport{
			Session:     sess,
			Investments: res.Investments,
		})
		if err != nil {
			return fmt.Errorf("app: archive session: %w", err)
		}
		a.logger.InfoContext(ctx, "session archived",
			slog.String("session_id", sess.ID.String()),
			slog.String("path", path),
		)
	}

	return nil
}

// logStartupState surfaces what the database knows before the daemon starts
// scheduling, so a restarted operator can see where the last run left off.
func (a *App) logStartupState(ctx context.Context, deps *Dependencies) {
	if sessions, err := deps.SessionStore.ListRecent(ctx, 5); err != nil {
		a.logger.WarnContext(ctx, "listing recent sessions failed",
			slog.String("error", err.Error()),
		)
	} else if len(sessions) > 0 {
		last := sessions[0]
		a.logger.InfoContext(ctx, "last recorded session",
			slog.String("session_id", last.ID.String()),
			slog.Time("finished_at", last.FinishedAt),
			slog.String("invested_total", last.InvestedTotal.String()),
			slog.Int("investments", last.InvestmentCount),
		)
	}

	if active, err := deps.InvestmentStore.ListActive(ctx); err != nil {
		a.logger.WarnContext(ctx, "listing active investments failed",
			slog.String("error", err.Error()),
		)
	} else {
		a.logger.InfoContext(ctx, "active investments on record",
			slog.Int("count", len(active)),
			slog.String("total", sumAmounts(active).String()),
		)
	}
}

func sumAmounts(investments []domain.Investment) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range investments {
		total = total.Add(inv.Amount)
	}
	return total
}

// cronLogger adapts slog to the cron scheduler's logging interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, slog.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.Any("details", keysAndValues),
	)
}
