package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranovak/lendivest/internal/config"
	"github.com/veranovak/lendivest/internal/domain"
)

func TestCompileConfig(t *testing.T) {
	sc := config.StrategyConfig{
		MinimumInvestment: 200,
		InvestmentStep:    200,
		Ratings: map[string]config.RatingPolicyConfig{
			"A": {TargetShare: 0.5, MaxLoanAmount: 600},
			"D": {TargetShare: 0.1, MaxLoanAmount: 200, ConfirmationRequired: true},
		},
		AcceptFilters: []config.FilterConfig{
			{MinInterestRate: 4, MaxInterestRate: 16, InsuredOnly: true},
		},
		RejectFilters: []config.FilterConfig{
			{Purposes: []string{"gambling"}},
		},
	}

	cfg, err := CompileConfig(sc, 30*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.ProtectionWindow)
	assert.True(t, cfg.MinimumInvestment.Equal(decimal.NewFromInt(200)))
	require.Contains(t, cfg.Policies, domain.RatingD)
	assert.True(t, cfg.Policies[domain.RatingD].ConfirmationRequired)
	require.Len(t, cfg.Accept, 1)
	require.Len(t, cfg.Reject, 1)

	insured := domain.Loan{
		Rating:       domain.RatingA,
		InterestRate: decimal.RequireFromString("8.5"),
		Insured:      true,
	}
	assert.True(t, cfg.Accept[0].Matches(insured))

	tooCheap := insured
	tooCheap.InterestRate = decimal.RequireFromString("2")
	assert.False(t, cfg.Accept[0].Matches(tooCheap), "interest rate below the configured range")
}

func TestCompileConfigButRatings(t *testing.T) {
	sc := config.StrategyConfig{
		MinimumInvestment: 200,
		Ratings: map[string]config.RatingPolicyConfig{
			"A": {TargetShare: 0.5, MaxLoanAmount: 600},
		},
		AcceptFilters: []config.FilterConfig{
			{MinAmount: 199, ButRatings: []string{"A"}},
		},
	}

	cfg, err := CompileConfig(sc, 0)
	require.NoError(t, err)
	require.Len(t, cfg.Accept, 1)

	big := domain.Loan{Rating: domain.RatingB, Amount: decimal.NewFromInt(500)}
	assert.True(t, cfg.Accept[0].Matches(big))

	ratedA := domain.Loan{Rating: domain.RatingA, Amount: decimal.NewFromInt(500)}
	assert.False(t, cfg.Accept[0].Matches(ratedA), "but_ratings overrides the accepting bounds")
}

func TestCompileConfigRejectsUnknownRating(t *testing.T) {
	sc := config.StrategyConfig{
		MinimumInvestment: 200,
		Ratings: map[string]config.RatingPolicyConfig{
			"Z": {TargetShare: 0.5, MaxLoanAmount: 600},
		},
	}

	_, err := CompileConfig(sc, 0)
	assert.Error(t, err)
}

func TestCompileConfigRejectsEmptyFilter(t *testing.T) {
	sc := config.StrategyConfig{
		MinimumInvestment: 200,
		Ratings: map[string]config.RatingPolicyConfig{
			"A": {TargetShare: 0.5, MaxLoanAmount: 600},
		},
		AcceptFilters: []config.FilterConfig{{}},
	}

	_, err := CompileConfig(sc, 0)
	assert.Error(t, err)
}

func TestCompileConfigRejectsInvalidBound(t *testing.T) {
	sc := config.StrategyConfig{
		MinimumInvestment: 200,
		Ratings: map[string]config.RatingPolicyConfig{
			"A": {TargetShare: 0.5, MaxLoanAmount: 600},
		},
		AcceptFilters: []config.FilterConfig{
			{MinInterestRate: 150}, // above the 0-100 field domain
		},
	}

	_, err := CompileConfig(sc, 0)
	assert.Error(t, err)
}
