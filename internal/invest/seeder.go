package invest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veranovak/lendivest/internal/domain"
)

// LoanReader resolves a loan id to its full record. In production this is the
// cache-backed loan service; in tests a fake.
type LoanReader interface {
	GetLoan(ctx context.Context, id int64) (domain.Loan, error)
}

// seedExisting resolves each blocked amount to its underlying loan so the
// tracker can be seeded with previously made investments. Lookups fan out
// over a bounded worker pool and each id is retried independently; a lookup
// that exhausts its retries fails the whole seeding step, because an
// under-counted blocked amount would corrupt the balance invariant.
func (i *Investor) seedExisting(ctx context.Context, blocked []domain.BlockedAmount) ([]domain.Investment, error) {
	if len(blocked) == 0 {
		return nil, nil
	}

	workers := i.cfg.SeedWorkers
	if workers <= 0 {
		workers = 4
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	out := make([]domain.Investment, len(blocked))
	for idx, ba := range blocked {
		idx, ba := idx, ba
		g.Go(func() error {
			loan, err := i.lookupLoan(ctx, ba.LoanID)
			if err != nil {
				return fmt.Errorf("invest: resolve blocked amount for loan %d: %w", ba.LoanID, err)
			}
			out[idx] = domain.Investment{
				LoanID:                ba.LoanID,
				Amount:                ba.Amount,
				Rating:                loan.Rating,
				RemainingTermInMonths: loan.TermInMonths,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// lookupLoan fetches one loan with bounded retry and fixed backoff.
func (i *Investor) lookupLoan(ctx context.Context, id int64) (domain.Loan, error) {
	attempts := i.cfg.SeedAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := i.cfg.SeedBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return domain.Loan{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		loan, err := i.loans.GetLoan(ctx, id)
		if err == nil {
			return loan, nil
		}
		lastErr = err
		i.logger.WarnContext(ctx, "loan lookup failed",
			slog.Int64("loan_id", id),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}
	return domain.Loan{}, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
