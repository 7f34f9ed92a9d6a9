package strategy

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
	"github.com/veranovak/lendivest/internal/rules"
)

// RatingPolicy is the per-rating slice of the portfolio plan.
type RatingPolicy struct {
	// TargetShare is the desired fraction (0..1) of the portfolio held in
	// this rating. Ratings without a policy are never invested in.
	TargetShare decimal.Decimal
	// MaxLoanAmount caps a single investment into a loan of this rating.
	MaxLoanAmount decimal.Decimal
	// ConfirmationRequired routes every investment in this rating through
	// the external confirmation service.
	ConfirmationRequired bool
}

// Config shapes a PortfolioStrategy.
type Config struct {
	Policies map[domain.Rating]RatingPolicy
	// Accept filters whitelist loans: when non-empty, a loan must match at
	// least one. Reject filters blacklist: a loan matching any is out.
	// Rejection wins over acceptance.
	Accept []*rules.Filter
	Reject []*rules.Filter
	// MinimumInvestment is the smallest amount worth proposing.
	MinimumInvestment decimal.Decimal
	// InvestmentStep rounds proposed amounts down to a multiple of itself.
	// Zero disables rounding.
	InvestmentStep decimal.Decimal
	// ProtectionWindow is the marketplace's investor-protection duration,
	// counted from a loan's publish timestamp. Zero disables the window.
	ProtectionWindow time.Duration
}

// PortfolioStrategy proposes investments that steer the portfolio's per-rating
// shares toward configured targets. Loans in the most underinvested rating
// rank first; within a rating the higher interest rate wins.
type PortfolioStrategy struct {
	cfg    Config
	logger *slog.Logger
}

// NewPortfolioStrategy builds the strategy from its config.
func NewPortfolioStrategy(cfg Config, logger *slog.Logger) *PortfolioStrategy {
	return &PortfolioStrategy{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "portfolio_strategy")),
	}
}

// Name implements Strategy.
func (s *PortfolioStrategy) Name() string { return "portfolio" }

type candidate struct {
	rec     domain.Recommendation
	deficit decimal.Decimal
}

// Recommend implements Strategy.
func (s *PortfolioStrategy) Recommend(ctx context.Context, loans []domain.Loan, overview domain.PortfolioOverview) []domain.Recommendation {
	candidates := make([]candidate, 0, len(loans))
	for _, loan := range loans {
		policy, ok := s.cfg.Policies[loan.Rating]
		if !ok {
			continue
		}
		if !s.admits(loan) {
			continue
		}
		amount := s.sizeAmount(loan, policy)
		if amount.LessThan(s.cfg.MinimumInvestment) {
			s.logger.DebugContext(ctx, "loan too small to fund",
				slog.Int64("loan_id", loan.ID),
				slog.String("sized_amount", amount.String()),
			)
			continue
		}

		rec := domain.Recommendation{
			Loan:                 loan,
			Amount:               amount,
			ConfirmationRequired: policy.ConfirmationRequired,
		}
		if s.cfg.ProtectionWindow > 0 && !loan.DatePublished.IsZero() {
			end := loan.DatePublished.Add(s.cfg.ProtectionWindow)
			rec.ProtectionWindowEnd = &end
		}
		candidates = append(candidates, candidate{
			rec:     rec,
			deficit: policy.TargetShare.Sub(overview.ShareOf(loan.Rating)),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].deficit.Equal(candidates[j].deficit) {
			return candidates[i].deficit.GreaterThan(candidates[j].deficit)
		}
		ri, rj := candidates[i].rec.Loan.InterestRate, candidates[j].rec.Loan.InterestRate
		if !ri.Equal(rj) {
			return ri.GreaterThan(rj)
		}
		return candidates[i].rec.Loan.ID < candidates[j].rec.Loan.ID
	})

	recs := make([]domain.Recommendation, len(candidates))
	for i, c := range candidates {
		recs[i] = c.rec
	}
	return recs
}

// admits applies the whitelist/blacklist filter sets. Rejection wins.
func (s *PortfolioStrategy) admits(loan domain.Loan) bool {
	for _, f := range s.cfg.Reject {
		if f.Matches(loan) {
			return false
		}
	}
	if len(s.cfg.Accept) == 0 {
		return true
	}
	for _, f := range s.cfg.Accept {
		if f.Matches(loan) {
			return true
		}
	}
	return false
}

// sizeAmount picks the amount for one loan: the per-rating cap, limited by
// what is still open on the loan, rounded down to the investment step.
func (s *PortfolioStrategy) sizeAmount(loan domain.Loan, policy RatingPolicy) decimal.Decimal {
	amount := policy.MaxLoanAmount
	if loan.RemainingInvestment.LessThan(amount) {
		amount = loan.RemainingInvestment
	}
	if s.cfg.InvestmentStep.IsPositive() {
		amount = amount.Div(s.cfg.InvestmentStep).Floor().Mul(s.cfg.InvestmentStep)
	}
	return amount
}
