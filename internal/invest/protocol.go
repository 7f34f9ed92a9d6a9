// Package invest implements the investment decision protocol, the per-run
// investment tracker, and the investor loop that drives them.
package invest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
)

// LoanInvestor is the money-moving slice of the marketplace API.
type LoanInvestor interface {
	Invest(ctx context.Context, loanID int64, amount decimal.Decimal) error
}

// Protocol turns one recommendation into a terminal decision outcome. It is
// a state machine over four inputs: dry-run mode, whether the loan was
// proposed before in this run, whether its protection window is active, and
// whether the strategy requires external confirmation.
type Protocol struct {
	investor LoanInvestor
	confirm  domain.ConfirmationProvider // nil when no capability is configured
	dryRun   bool
	now      func() time.Time
	logger   *slog.Logger
}

// NewProtocol creates a Protocol. confirm may be nil; dryRun short-circuits
// every decision into an immediate Invested outcome with zero remote calls.
func NewProtocol(investor LoanInvestor, confirm domain.ConfirmationProvider, dryRun bool, logger *slog.Logger) *Protocol {
	return &Protocol{
		investor: investor,
		confirm:  confirm,
		dryRun:   dryRun,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "decision_protocol")),
	}
}

// Decide runs the decision state machine for one recommendation attempt.
//
// A failure of the direct investment call is returned as an error, never
// folded into OutcomeFailed: once the call has been issued the money state is
// uncertain and the caller must halt rather than keep going. The
// no-confirmation-response paths, by contrast, map to the clean
// OutcomeFailed because no side effect has happened yet. Money-moving calls
// are never retried automatically.
func (p *Protocol) Decide(ctx context.Context, rec domain.Recommendation, seenBefore bool) (domain.DecisionOutcome, error) {
	if p.dryRun {
		p.logger.InfoContext(ctx, "dry run, assuming investment",
			slog.Int64("loan_id", rec.Loan.ID),
			slog.String("amount", rec.Amount.String()),
		)
		return domain.Invested(rec.Amount), nil
	}

	protected := rec.ProtectionActive(p.now())

	if seenBefore {
		if protected || rec.ConfirmationRequired {
			// The earlier cycle already delegated this loan; retain that
			// disposition without another remote call.
			return domain.Delegated(), nil
		}
		return p.investDirectly(ctx, rec)
	}

	if rec.ConfirmationRequired {
		if p.confirm == nil {
			p.logger.WarnContext(ctx, "confirmation required but no capability configured",
				slog.Int64("loan_id", rec.Loan.ID),
			)
			return domain.Failed(), nil
		}
		c, err := p.requestConfirmation(ctx, rec)
		if err != nil {
			return domain.DecisionOutcome{}, err
		}
		if c == nil {
			return domain.Failed(), nil
		}
		switch c.Status {
		case domain.ConfirmationApproved:
			approved := rec
			if c.Amount.IsPositive() {
				approved.Amount = c.Amount
			}
			return p.investDirectly(ctx, approved)
		case domain.ConfirmationRejected:
			return domain.Rejected(), nil
		case domain.ConfirmationDelegated:
			return domain.Delegated(), nil
		default:
			return domain.DecisionOutcome{}, fmt.Errorf("invest: unknown confirmation status %q for loan %d", c.Status, rec.Loan.ID)
		}
	}

	if protected {
		if p.confirm == nil {
			// Protected window and nothing to delegate to.
			return domain.Rejected(), nil
		}
		c, err := p.requestConfirmation(ctx, rec)
		if err != nil {
			return domain.DecisionOutcome{}, err
		}
		if c == nil {
			return domain.Failed(), nil
		}
		if c.Status == domain.ConfirmationDelegated {
			return domain.Delegated(), nil
		}
		return domain.Rejected(), nil
	}

	return p.investDirectly(ctx, rec)
}

// investDirectly issues the remote investment call with the confirmed amount.
func (p *Protocol) investDirectly(ctx context.Context, rec domain.Recommendation) (domain.DecisionOutcome, error) {
	if err := p.investor.Invest(ctx, rec.Loan.ID, rec.Amount); err != nil {
		return domain.DecisionOutcome{}, fmt.Errorf("invest: loan %d, amount %s: %w", rec.Loan.ID, rec.Amount, err)
	}
	p.logger.InfoContext(ctx, "invested",
		slog.Int64("loan_id", rec.Loan.ID),
		slog.String("amount", rec.Amount.String()),
	)
	return domain.Invested(rec.Amount), nil
}

func (p *Protocol) requestConfirmation(ctx context.Context, rec domain.Recommendation) (*domain.Confirmation, error) {
	req := domain.ConfirmationRequest{
		RequestID: uuid.New(),
		LoanID:    rec.Loan.ID,
		Amount:    rec.Amount,
	}
	p.logger.InfoContext(ctx, "requesting confirmation",
		slog.String("request_id", req.RequestID.String()),
		slog.Int64("loan_id", req.LoanID),
		slog.String("amount", req.Amount.String()),
	)
	c, err := p.confirm.RequestConfirmation(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("invest: confirmation request %s for loan %d: %w", req.RequestID, req.LoanID, err)
	}
	return c, nil
}
