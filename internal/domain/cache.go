package domain

import "context"

// LoanCache provides fast loan lookups so that resolving blocked amounts does
// not hammer the marketplace with one GET per loan on every run.
type LoanCache interface {
	Set(ctx context.Context, loan Loan) error
	Get(ctx context.Context, id int64) (Loan, error)
	Invalidate(ctx context.Context, id int64) error
}
