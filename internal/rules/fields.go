package rules

import "github.com/veranovak/lendivest/internal/domain"

// Predefined accessors over the marketplace loan snapshot. Thresholds applied
// to a field are validated against its domain at construction time.
//
// ActiveLoansCount is flagged remote because the marketplace only includes
// borrower history on the loan detail endpoint, not in listing responses.
var (
	FieldAmount = NewNumericField("amount", AtLeast(0.0), false,
		func(l domain.Loan) float64 { return l.Amount.InexactFloat64() })

	FieldRemainingInvestment = NewNumericField("remainingInvestment", AtLeast(0.0), false,
		func(l domain.Loan) float64 { return l.RemainingInvestment.InexactFloat64() })

	FieldInterestRate = NewNumericField("interestRate", NewDomain(0.0, 100.0), false,
		func(l domain.Loan) float64 { return l.InterestRate.InexactFloat64() })

	FieldTermInMonths = NewNumericField("termInMonths", NewDomain(0, 120), false,
		func(l domain.Loan) int { return l.TermInMonths })

	FieldActiveLoansCount = NewNumericField("activeLoansCount", AtLeast(0), true,
		func(l domain.Loan) int { return l.ActiveLoansCount })

	FieldRating = NewCategoricalField("rating", false,
		func(l domain.Loan) string { return string(l.Rating) })

	FieldPurpose = NewCategoricalField("purpose", false,
		func(l domain.Loan) string { return l.Purpose })

	FieldRegion = NewCategoricalField("region", false,
		func(l domain.Loan) string { return l.Region })

	FieldMainIncomeType = NewCategoricalField("mainIncomeType", true,
		func(l domain.Loan) string { return l.MainIncomeType })

	FieldInsured = NewBoolField("insured", false,
		func(l domain.Loan) bool { return l.Insured })
)
