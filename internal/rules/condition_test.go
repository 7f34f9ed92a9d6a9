package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranovak/lendivest/internal/domain"
)

func testLoan(amount int64, rating domain.Rating) domain.Loan {
	return domain.Loan{
		ID:                  1,
		Rating:              rating,
		Amount:              decimal.NewFromInt(amount),
		RemainingInvestment: decimal.NewFromInt(amount / 2),
		InterestRate:        decimal.NewFromFloat(5.5),
		TermInMonths:        36,
		Insured:             true,
	}
}

func TestRangeConditionDomainValidation(t *testing.T) {
	_, err := LessThan(FieldInterestRate, 150.0)
	assert.Error(t, err, "threshold above the field domain must fail at construction")

	_, err = MoreThan(FieldTermInMonths, 200)
	assert.Error(t, err)

	_, err = MoreThan(FieldAmount, -1.0)
	assert.Error(t, err)

	c, err := LessThan(FieldInterestRate, 50.0)
	require.NoError(t, err)
	assert.Equal(t, "interestRate less than 50", c.Description())
}

func TestRangeConditionSemantics(t *testing.T) {
	less, err := LessThan(FieldTermInMonths, 36)
	require.NoError(t, err)
	more, err := MoreThan(FieldTermInMonths, 36)
	require.NoError(t, err)

	loan := testLoan(1000, domain.RatingA)
	// Both comparisons are strict: a value equal to the threshold matches neither.
	assert.False(t, less.Evaluate(loan))
	assert.False(t, more.Evaluate(loan))

	loan.TermInMonths = 35
	assert.True(t, less.Evaluate(loan))
	loan.TermInMonths = 37
	assert.True(t, more.Evaluate(loan))
}

func TestExactConditionInclusiveBounds(t *testing.T) {
	c, err := Exact(FieldTermInMonths, 12, 36)
	require.NoError(t, err)

	loan := testLoan(1000, domain.RatingA)
	for term, want := range map[int]bool{11: false, 12: true, 24: true, 36: true, 37: false} {
		loan.TermInMonths = term
		assert.Equal(t, want, c.Evaluate(loan), "term %d", term)
	}

	_, err = Exact(FieldTermInMonths, 36, 12)
	assert.Error(t, err, "minimum above maximum must fail at construction")
}

func TestEnumeratedCondition(t *testing.T) {
	c := OneOf(FieldRating, "A", "B")
	assert.True(t, c.Evaluate(testLoan(1000, domain.RatingA)))
	assert.True(t, c.Evaluate(testLoan(1000, domain.RatingB)))
	assert.False(t, c.Evaluate(testLoan(1000, domain.RatingD)))

	empty := OneOf(FieldRating)
	assert.False(t, empty.Evaluate(testLoan(1000, domain.RatingA)),
		"an empty acceptable set matches nothing")
}

func TestBooleanCondition(t *testing.T) {
	insured := Is(FieldInsured, true)
	uninsured := Is(FieldInsured, false)

	loan := testLoan(1000, domain.RatingA)
	assert.True(t, insured.Evaluate(loan))
	assert.False(t, uninsured.Evaluate(loan))

	loan.Insured = false
	assert.False(t, insured.Evaluate(loan))
	assert.True(t, uninsured.Evaluate(loan))
}

func TestRelativeConditionValidation(t *testing.T) {
	_, err := RelativeMoreThan(FieldRemainingInvestment, FieldAmount, 150)
	assert.Error(t, err)

	_, err = RelativeLessThan(FieldRemainingInvestment, FieldAmount, -5)
	assert.Error(t, err)

	_, err = RelativeExact(FieldRemainingInvestment, FieldAmount, 80, 20)
	assert.Error(t, err)
}

func TestRelativeConditionSemantics(t *testing.T) {
	c, err := RelativeMoreThan(FieldRemainingInvestment, FieldAmount, 40)
	require.NoError(t, err)

	loan := testLoan(1000, domain.RatingA) // remaining 500 of 1000 = 50%
	assert.True(t, c.Evaluate(loan))

	loan.RemainingInvestment = decimal.NewFromInt(300) // 30%
	assert.False(t, c.Evaluate(loan))
}

func TestRelativeConditionZeroDenominator(t *testing.T) {
	more, err := RelativeMoreThan(FieldRemainingInvestment, FieldAmount, 0)
	require.NoError(t, err)
	less, err := RelativeLessThan(FieldRemainingInvestment, FieldAmount, 100)
	require.NoError(t, err)

	loan := testLoan(1000, domain.RatingA)
	loan.Amount = decimal.Zero
	loan.RemainingInvestment = decimal.NewFromInt(500)

	// A zero denominator has no meaningful percentage: the policy is that the
	// condition does not match, never panics, and is stable across calls.
	for i := 0; i < 3; i++ {
		assert.False(t, more.Evaluate(loan))
		assert.False(t, less.Evaluate(loan))
	}
}
