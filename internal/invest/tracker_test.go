package invest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranovak/lendivest/internal/domain"
)

func loan(id int64) domain.Loan {
	return domain.Loan{ID: id, Rating: domain.RatingA, TermInMonths: 36}
}

func investment(id, amount int64) domain.Investment {
	return domain.Investment{LoanID: id, Amount: decimal.NewFromInt(amount), Rating: domain.RatingA, RemainingTermInMonths: 36}
}

func loanIDs(loans []domain.Loan) []int64 {
	ids := make([]int64, len(loans))
	for i, l := range loans {
		ids[i] = l.ID
	}
	return ids
}

func TestTrackerBalanceInvariant(t *testing.T) {
	tr := NewTracker(decimal.NewFromInt(1000), []domain.Loan{loan(1), loan(2), loan(3)})

	require.NoError(t, tr.MakeInvestment(investment(1, 300)))
	require.NoError(t, tr.MakeInvestment(investment(2, 450)))

	assert.True(t, tr.Balance().Equal(decimal.NewFromInt(250)),
		"final balance must equal initial minus the invested sum")
	assert.Len(t, tr.Investments(), 2)
}

func TestTrackerRejectsOverBalanceInvestment(t *testing.T) {
	tr := NewTracker(decimal.NewFromInt(200), []domain.Loan{loan(1)})

	err := tr.MakeInvestment(investment(1, 201))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.True(t, tr.Balance().Equal(decimal.NewFromInt(200)), "a rejected investment must not touch the balance")
	assert.Empty(t, tr.Investments())
}

func TestTrackerInvestmentRemovesLoan(t *testing.T) {
	tr := NewTracker(decimal.NewFromInt(1000), []domain.Loan{loan(1), loan(2)})

	require.NoError(t, tr.MakeInvestment(investment(1, 100)))
	assert.Equal(t, []int64{2}, loanIDs(tr.AvailableLoans()))

	err := tr.MakeInvestment(investment(1, 100))
	assert.Error(t, err, "at most one active outcome per loan per session")
}

func TestTrackerDiscardIsPermanent(t *testing.T) {
	tr := NewTracker(decimal.NewFromInt(1000), []domain.Loan{loan(1), loan(2)})

	tr.DiscardLoan(1)
	for cycle := 0; cycle < 3; cycle++ {
		assert.Equal(t, []int64{2}, loanIDs(tr.AvailableLoans()), "cycle %d", cycle)
		tr.NextCycle()
	}

	tr.IgnoreLoan(1)
	assert.False(t, tr.IsSeenBefore(1), "a discarded loan cannot re-enter through ignore")
	tr.NextCycle()
	assert.Equal(t, []int64{2}, loanIDs(tr.AvailableLoans()))
}

func TestTrackerIgnoredLoanResurfaces(t *testing.T) {
	tr := NewTracker(decimal.NewFromInt(1000), []domain.Loan{loan(1), loan(2)})

	tr.IgnoreLoan(1)
	assert.Equal(t, []int64{2}, loanIDs(tr.AvailableLoans()), "ignored loans leave the current cycle's pool")
	assert.True(t, tr.IsSeenBefore(1))

	tr.NextCycle()
	assert.Equal(t, []int64{1, 2}, loanIDs(tr.AvailableLoans()), "ignored loans resurface in later cycles")
	assert.True(t, tr.IsSeenBefore(1), "a resurfaced loan is still seen-before")
}

func TestTrackerInvestResolvesSeenBefore(t *testing.T) {
	tr := NewTracker(decimal.NewFromInt(1000), []domain.Loan{loan(1)})

	tr.IgnoreLoan(1)
	tr.NextCycle()
	require.NoError(t, tr.MakeInvestment(investment(1, 100)))
	assert.False(t, tr.IsSeenBefore(1), "investing resolves the pending disposition")
}

func TestTrackerRegisterExistingInvestments(t *testing.T) {
	tr := NewTracker(decimal.NewFromInt(1000), []domain.Loan{loan(1), loan(2)})

	require.NoError(t, tr.RegisterExistingInvestments([]domain.Investment{
		investment(1, 300),
		{LoanID: 99, Amount: decimal.NewFromInt(200), Rating: domain.RatingC},
	}))

	assert.True(t, tr.Balance().Equal(decimal.NewFromInt(500)),
		"blocked amounts are subtracted before the loop starts")
	assert.Equal(t, []int64{2}, loanIDs(tr.AvailableLoans()))
	assert.Empty(t, tr.Investments(), "previously made investments are not part of this session's ledger")
	assert.Len(t, tr.AllInvestments(), 2)
}

func TestTrackerRegisterExistingOverdraftFailsLoudly(t *testing.T) {
	tr := NewTracker(decimal.NewFromInt(100), nil)

	err := tr.RegisterExistingInvestments([]domain.Investment{investment(1, 300)})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}
