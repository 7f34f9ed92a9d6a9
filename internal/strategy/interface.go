package strategy

import (
	"context"

	"github.com/veranovak/lendivest/internal/domain"
)

// Strategy ranks the available loans against the current portfolio shape and
// proposes investments, in order of preference. Strategies are advisory; the
// decision protocol and the tracker own all side effects.
type Strategy interface {
	Name() string
	Recommend(ctx context.Context, loans []domain.Loan, overview domain.PortfolioOverview) []domain.Recommendation
}
