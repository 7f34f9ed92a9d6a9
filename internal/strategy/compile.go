package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/config"
	"github.com/veranovak/lendivest/internal/domain"
	"github.com/veranovak/lendivest/internal/rules"
)

// CompileConfig turns the TOML strategy section into a runnable strategy
// Config: rating policies become decimal-typed policies, filter blocks become
// rules filters. Threshold validation happens here, at startup, so a bad
// bound aborts the run instead of silently matching nothing.
func CompileConfig(sc config.StrategyConfig, protectionWindow time.Duration) (Config, error) {
	cfg := Config{
		Policies:          make(map[domain.Rating]RatingPolicy, len(sc.Ratings)),
		MinimumInvestment: decimal.NewFromFloat(sc.MinimumInvestment),
		InvestmentStep:    decimal.NewFromFloat(sc.InvestmentStep),
		ProtectionWindow:  protectionWindow,
	}

	for name, policy := range sc.Ratings {
		rating := domain.Rating(name)
		if !rating.IsKnown() {
			return Config{}, fmt.Errorf("strategy: unknown rating %q in policy table", name)
		}
		cfg.Policies[rating] = RatingPolicy{
			TargetShare:          decimal.NewFromFloat(policy.TargetShare),
			MaxLoanAmount:        decimal.NewFromFloat(policy.MaxLoanAmount),
			ConfirmationRequired: policy.ConfirmationRequired,
		}
	}

	for i, fc := range sc.AcceptFilters {
		f, err := compileFilter(fc)
		if err != nil {
			return Config{}, fmt.Errorf("strategy: accept_filter %d: %w", i, err)
		}
		cfg.Accept = append(cfg.Accept, f)
	}
	for i, fc := range sc.RejectFilters {
		f, err := compileFilter(fc)
		if err != nil {
			return Config{}, fmt.Errorf("strategy: reject_filter %d: %w", i, err)
		}
		cfg.Reject = append(cfg.Reject, f)
	}

	return cfg, nil
}

// compileFilter builds one rules filter from its config block. Two-sided
// numeric bounds are inclusive; single-sided bounds are strict.
func compileFilter(fc config.FilterConfig) (*rules.Filter, error) {
	var accept []rules.Condition

	if len(fc.Ratings) > 0 {
		accept = append(accept, rules.OneOf(rules.FieldRating, fc.Ratings...))
	}
	if len(fc.Purposes) > 0 {
		accept = append(accept, rules.OneOf(rules.FieldPurpose, fc.Purposes...))
	}
	if len(fc.Regions) > 0 {
		accept = append(accept, rules.OneOf(rules.FieldRegion, fc.Regions...))
	}
	if len(fc.IncomeTypes) > 0 {
		accept = append(accept, rules.OneOf(rules.FieldMainIncomeType, fc.IncomeTypes...))
	}
	if fc.InsuredOnly {
		accept = append(accept, rules.Is(rules.FieldInsured, true))
	}

	c, err := rangeCondition(rules.FieldAmount, fc.MinAmount, fc.MaxAmount)
	if err != nil {
		return nil, err
	}
	if c != nil {
		accept = append(accept, c)
	}

	c, err = rangeCondition(rules.FieldInterestRate, fc.MinInterestRate, fc.MaxInterestRate)
	if err != nil {
		return nil, err
	}
	if c != nil {
		accept = append(accept, c)
	}

	c, err = rangeCondition(rules.FieldTermInMonths, fc.MinTermMonths, fc.MaxTermMonths)
	if err != nil {
		return nil, err
	}
	if c != nil {
		accept = append(accept, c)
	}

	if fc.MaxActiveLoans > 0 {
		// Strictly below max+1, i.e. at most MaxActiveLoans open loans.
		c, err := rules.LessThan(rules.FieldActiveLoansCount, fc.MaxActiveLoans+1)
		if err != nil {
			return nil, err
		}
		accept = append(accept, c)
	}

	if len(accept) == 0 {
		return nil, fmt.Errorf("filter has no conditions")
	}

	var rejectUnless []rules.Condition
	if len(fc.ButRatings) > 0 {
		rejectUnless = append(rejectUnless, rules.OneOf(rules.FieldRating, fc.ButRatings...))
	}

	return rules.NewFilter(accept, rejectUnless), nil
}

func rangeCondition[T rules.Number](field rules.NumericField[T], lo, hi T) (rules.Condition, error) {
	var zero T
	switch {
	case lo > zero && hi > zero:
		return rules.Exact(field, lo, hi)
	case lo > zero:
		return rules.MoreThan(field, lo)
	case hi > zero:
		return rules.LessThan(field, hi)
	default:
		return nil, nil
	}
}
