package invest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
)

// Event names emitted to the notification sink at documented points of the
// loop. The sink is best effort; delivery failures never stop the run.
const (
	EventSessionStarted  = "session_started"
	EventLoanRecommended = "loan_recommended"
	EventInvestmentMade  = "investment_made"
	EventDelegated       = "investment_delegated"
	EventLoanRejected    = "loan_rejected"
	EventSkipped         = "investment_skipped"
	EventSessionFinished = "session_finished"
	EventError           = "error"
)

// RecommendationSource is the strategy boundary: given the loans still
// available and the current portfolio shape, it yields an ordered sequence of
// recommended investments. Purely advisory.
type RecommendationSource interface {
	Recommend(ctx context.Context, loans []domain.Loan, overview domain.PortfolioOverview) []domain.Recommendation
}

// EventSink receives fire-and-forget loop notifications.
type EventSink interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config tunes one investor run.
type Config struct {
	// MinimumInvestment is the smallest amount worth investing; the loop
	// stops once the balance drops below it.
	MinimumInvestment decimal.Decimal
	// SeedWorkers bounds the parallelism of blocked-amount resolution.
	SeedWorkers int
	// SeedAttempts bounds per-loan lookup retries during seeding.
	SeedAttempts int
	// SeedBackoff is the fixed delay between lookup retries.
	SeedBackoff time.Duration
}

// Investor runs the investment loop: seed the tracker, then repeatedly ask
// the strategy for recommendations and push each through the decision
// protocol until the balance runs out or a full pass makes no investment.
type Investor struct {
	market   domain.Marketplace
	loans    LoanReader
	strategy RecommendationSource
	protocol *Protocol
	events   EventSink
	cfg      Config
	logger   *slog.Logger
}

// New creates an Investor. events may be nil.
func New(
	market domain.Marketplace,
	loans LoanReader,
	strategy RecommendationSource,
	protocol *Protocol,
	events EventSink,
	cfg Config,
	logger *slog.Logger,
) *Investor {
	return &Investor{
		market:   market,
		loans:    loans,
		strategy: strategy,
		protocol: protocol,
		events:   events,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "investor")),
	}
}

// Result summarizes one run for the orchestrator to persist and archive.
type Result struct {
	SessionID       uuid.UUID
	StartedAt       time.Time
	FinishedAt      time.Time
	StartingBalance decimal.Decimal
	FinalBalance    decimal.Decimal
	Investments     []domain.Investment
}

// Run executes one investor session. When a decision-protocol fault leaves
// the money state uncertain, Run returns the partial Result together with the
// error so the operator can reconcile; for all tolerated conditions it
// returns a clean Result.
func (i *Investor) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		SessionID: uuid.New(),
		StartedAt: time.Now(),
	}

	wallet, err := i.market.GetWallet(ctx)
	if err != nil {
		return nil, fmt.Errorf("invest: fetch wallet: %w", err)
	}
	res.StartingBalance = wallet.AvailableBalance
	res.FinalBalance = wallet.AvailableBalance

	if wallet.AvailableBalance.LessThan(i.cfg.MinimumInvestment) {
		i.logger.InfoContext(ctx, "balance below minimum investment, nothing to do",
			slog.String("balance", wallet.AvailableBalance.String()),
			slog.String("minimum", i.cfg.MinimumInvestment.String()),
		)
		res.FinishedAt = time.Now()
		return res, nil
	}

	stats, err := i.fetchStatistics(ctx)
	if err != nil {
		return nil, err
	}

	blocked, err := i.market.GetBlockedAmounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("invest: fetch blocked amounts: %w", err)
	}
	existing, err := i.seedExisting(ctx, blocked)
	if err != nil {
		return nil, err
	}

	available, err := i.market.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("invest: list marketplace: %w", err)
	}

	tracker := NewTracker(wallet.AvailableBalance, available)
	if err := tracker.RegisterExistingInvestments(existing); err != nil {
		return nil, fmt.Errorf("invest: register existing investments: %w", err)
	}

	i.notify(ctx, EventSessionStarted, "Investment session started",
		fmt.Sprintf("session %s, balance %s, %d loans on the marketplace",
			res.SessionID, tracker.Balance(), len(available)))

	runErr := i.runPasses(ctx, stats, tracker)

	res.Investments = tracker.Investments()
	res.FinalBalance = tracker.Balance()
	res.FinishedAt = time.Now()

	i.notify(ctx, EventSessionFinished, "Investment session finished",
		fmt.Sprintf("session %s, %d investments, final balance %s",
			res.SessionID, len(res.Investments), res.FinalBalance))

	if runErr != nil {
		return res, runErr
	}
	return res, nil
}

// runPasses executes recommendation passes until no further progress is
// possible. Each pass stops at its first successful investment so the next
// pass re-ranks from scratch instead of walking a stale list.
func (i *Investor) runPasses(ctx context.Context, stats *domain.Statistics, tracker *Tracker) error {
	for tracker.Balance().GreaterThanOrEqual(i.cfg.MinimumInvestment) {
		if err := ctx.Err(); err != nil {
			return err
		}

		overview := domain.NewPortfolioOverview(stats, tracker.AllInvestments())
		recs := i.strategy.Recommend(ctx, tracker.AvailableLoans(), overview)

		invested, err := i.runPass(ctx, tracker, recs)
		if err != nil {
			return err
		}
		tracker.NextCycle()
		if !invested {
			i.logger.InfoContext(ctx, "pass made no investment, stopping",
				slog.String("balance", tracker.Balance().String()),
			)
			return nil
		}
	}
	i.logger.InfoContext(ctx, "balance below minimum investment, stopping")
	return nil
}

func (i *Investor) runPass(ctx context.Context, tracker *Tracker, recs []domain.Recommendation) (bool, error) {
	for _, rec := range recs {
		if rec.Amount.GreaterThan(tracker.Balance()) {
			i.logger.DebugContext(ctx, "recommendation exceeds balance, skipping",
				slog.Int64("loan_id", rec.Loan.ID),
				slog.String("amount", rec.Amount.String()),
				slog.String("balance", tracker.Balance().String()),
			)
			continue
		}

		i.notify(ctx, EventLoanRecommended, "Loan recommended",
			fmt.Sprintf("loan %d (%s), amount %s", rec.Loan.ID, rec.Loan.Rating, rec.Amount))

		outcome, err := i.protocol.Decide(ctx, rec, tracker.IsSeenBefore(rec.Loan.ID))
		if err != nil {
			// Money state uncertain; halt the run rather than guess at
			// tracker consistency.
			i.notify(ctx, EventError, "Investment run halted",
				fmt.Sprintf("loan %d, attempted amount %s: %v", rec.Loan.ID, rec.Amount, err))
			return false, err
		}

		switch outcome.Kind {
		case domain.OutcomeInvested:
			inv := domain.Investment{
				LoanID:                rec.Loan.ID,
				Amount:                outcome.Amount,
				Rating:                rec.Loan.Rating,
				RemainingTermInMonths: rec.Loan.TermInMonths,
			}
			if err := tracker.MakeInvestment(inv); err != nil {
				return false, err
			}
			i.notify(ctx, EventInvestmentMade, "Investment made",
				fmt.Sprintf("loan %d, amount %s, balance left %s", inv.LoanID, inv.Amount, tracker.Balance()))
			return true, nil

		case domain.OutcomeDelegated:
			if rec.ConfirmationRequired {
				tracker.DiscardLoan(rec.Loan.ID)
			} else {
				tracker.IgnoreLoan(rec.Loan.ID)
			}
			i.notify(ctx, EventDelegated, "Investment delegated",
				fmt.Sprintf("loan %d, amount %s", rec.Loan.ID, rec.Amount))

		case domain.OutcomeRejected:
			tracker.DiscardLoan(rec.Loan.ID)
			i.notify(ctx, EventLoanRejected, "Loan rejected",
				fmt.Sprintf("loan %d", rec.Loan.ID))

		case domain.OutcomeFailed:
			// No side effect happened; the loan stays as it is and the
			// pass moves on.
			i.notify(ctx, EventSkipped, "Investment skipped",
				fmt.Sprintf("loan %d, no confirmation response", rec.Loan.ID))

		default:
			return false, fmt.Errorf("invest: unhandled outcome %v for loan %d", outcome.Kind, rec.Loan.ID)
		}
	}
	return false, nil
}

func (i *Investor) fetchStatistics(ctx context.Context) (*domain.Statistics, error) {
	stats, err := i.market.GetStatistics(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		i.logger.InfoContext(ctx, "no portfolio statistics available, using empty baseline")
		return domain.EmptyStatistics(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("invest: fetch statistics: %w", err)
	}
	if stats == nil {
		return domain.EmptyStatistics(), nil
	}
	return stats, nil
}

func (i *Investor) notify(ctx context.Context, event, title, message string) {
	if i.events == nil {
		return
	}
	// Best effort; the sink logs its own failures.
	_ = i.events.Notify(ctx, event, title, message)
}
