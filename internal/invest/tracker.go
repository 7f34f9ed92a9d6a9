package invest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
)

// Tracker is the session-scoped ledger of balance, available loans, made
// investments, and per-loan disposition. It is owned exclusively by one
// investor loop run and must never be shared across concurrent runs; it is
// deliberately unsynchronized.
//
// Invariants: a loan id lives in at most one of {discarded, ignored,
// invested} at any time, and the balance only ever decreases, by amounts
// actually invested.
type Tracker struct {
	balance         decimal.Decimal
	available       []domain.Loan
	madeThisSession []domain.Investment
	madePreviously  []domain.Investment
	invested        map[int64]struct{}
	discarded       map[int64]struct{}
	ignored         map[int64]int // loan id -> cycle it was ignored in
	cycle           int
}

// NewTracker creates a Tracker over the starting balance and the loans
// currently open on the marketplace. The slice is copied.
func NewTracker(balance decimal.Decimal, available []domain.Loan) *Tracker {
	loans := make([]domain.Loan, len(available))
	copy(loans, available)
	return &Tracker{
		balance:   balance,
		available: loans,
		invested:  make(map[int64]struct{}),
		discarded: make(map[int64]struct{}),
		ignored:   make(map[int64]int),
	}
}

// Balance returns the remaining investable balance.
func (t *Tracker) Balance() decimal.Decimal { return t.balance }

// AvailableLoans returns, in marketplace order, the loans still open to this
// session: not discarded, not invested, and not ignored during the current
// cycle. Loans ignored in earlier cycles resurface, since a non-required
// delegation may become directly investable once its protection window
// lapses.
func (t *Tracker) AvailableLoans() []domain.Loan {
	out := make([]domain.Loan, 0, len(t.available))
	for _, l := range t.available {
		if _, ok := t.discarded[l.ID]; ok {
			continue
		}
		if _, ok := t.invested[l.ID]; ok {
			continue
		}
		if cycle, ok := t.ignored[l.ID]; ok && cycle == t.cycle {
			continue
		}
		out = append(out, l)
	}
	return out
}

// MakeInvestment removes the loan from the available set, appends the
// investment to the session ledger, and decreases the balance. Calling it
// with an amount exceeding the current balance is a caller bug: the tracker
// fails loudly instead of clamping.
func (t *Tracker) MakeInvestment(inv domain.Investment) error {
	if err := t.commit(inv); err != nil {
		return err
	}
	t.madeThisSession = append(t.madeThisSession, inv)
	return nil
}

// RegisterExistingInvestments seeds the previously-made set and applies the
// balance and availability effects of each investment, so that pre-existing
// blocked amounts are subtracted before the loop starts.
func (t *Tracker) RegisterExistingInvestments(investments []domain.Investment) error {
	for _, inv := range investments {
		if err := t.commit(inv); err != nil {
			return err
		}
		t.madePreviously = append(t.madePreviously, inv)
	}
	return nil
}

func (t *Tracker) commit(inv domain.Investment) error {
	if inv.Amount.GreaterThan(t.balance) {
		return fmt.Errorf("invest: investment of %s into loan %d exceeds balance %s: %w",
			inv.Amount, inv.LoanID, t.balance, domain.ErrInsufficientBalance)
	}
	if _, ok := t.invested[inv.LoanID]; ok {
		return fmt.Errorf("invest: loan %d already has an investment this session", inv.LoanID)
	}
	if _, ok := t.discarded[inv.LoanID]; ok {
		return fmt.Errorf("invest: loan %d was discarded and cannot be invested", inv.LoanID)
	}
	delete(t.ignored, inv.LoanID)
	t.invested[inv.LoanID] = struct{}{}
	t.balance = t.balance.Sub(inv.Amount)
	return nil
}

// DiscardLoan removes the loan from consideration for the rest of the
// session. Used after a rejection, or after a delegation that carried a
// confirmation requirement; once delegated under such a requirement the loan
// must not be reconsidered here.
func (t *Tracker) DiscardLoan(id int64) {
	delete(t.ignored, id)
	t.discarded[id] = struct{}{}
}

// IgnoreLoan removes the loan from the active pool for the current cycle
// only, leaving it eligible to resurface in later cycles.
func (t *Tracker) IgnoreLoan(id int64) {
	if _, ok := t.discarded[id]; ok {
		return
	}
	if _, ok := t.invested[id]; ok {
		return
	}
	t.ignored[id] = t.cycle
}

// IsSeenBefore reports whether the loan was already proposed, and not yet
// resolved, in an earlier cycle of this run.
func (t *Tracker) IsSeenBefore(id int64) bool {
	_, ok := t.ignored[id]
	return ok
}

// NextCycle advances the cycle counter, letting ignored loans resurface.
func (t *Tracker) NextCycle() { t.cycle++ }

// Investments returns the investments made during this session, in order.
func (t *Tracker) Investments() []domain.Investment {
	out := make([]domain.Investment, len(t.madeThisSession))
	copy(out, t.madeThisSession)
	return out
}

// AllInvestments returns previously registered plus session investments, the
// set the portfolio overview is derived from.
func (t *Tracker) AllInvestments() []domain.Investment {
	out := make([]domain.Investment, 0, len(t.madePreviously)+len(t.madeThisSession))
	out = append(out, t.madePreviously...)
	out = append(out, t.madeThisSession...)
	return out
}
