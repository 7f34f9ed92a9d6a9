package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Marketplace is the lending platform's REST surface as the investor core
// needs it. All calls may fail with a transport error; callers decide which
// of those are tolerated (absent statistics, retryable lookups) and which
// propagate.
type Marketplace interface {
	// ListLoans returns the loans currently open for investment.
	ListLoans(ctx context.Context) ([]Loan, error)
	// GetLoan returns a single loan by id, ErrNotFound when it is gone.
	GetLoan(ctx context.Context, id int64) (Loan, error)
	// GetBlockedAmounts returns money held against unsettled investments.
	GetBlockedAmounts(ctx context.Context) ([]BlockedAmount, error)
	// GetStatistics returns the portfolio breakdown, ErrNotFound for fresh
	// accounts that have none yet.
	GetStatistics(ctx context.Context) (*Statistics, error)
	// GetWallet returns the current account balance.
	GetWallet(ctx context.Context) (Wallet, error)
	// Invest commits the given amount into the loan. A returned error means
	// the money state is uncertain and must not be reinterpreted as a clean
	// decision outcome.
	Invest(ctx context.Context, loanID int64, amount decimal.Decimal) error
}

// ConfirmationStatus is the answer of the external confirmation service.
type ConfirmationStatus string

const (
	ConfirmationApproved  ConfirmationStatus = "approved"
	ConfirmationRejected  ConfirmationStatus = "rejected"
	ConfirmationDelegated ConfirmationStatus = "delegated"
)

// ConfirmationRequest identifies one investment proposal submitted for
// external approval.
type ConfirmationRequest struct {
	RequestID uuid.UUID
	LoanID    int64
	Amount    decimal.Decimal
}

// Confirmation is a definite answer from the confirmation service. Amount is
// meaningful only when Status is ConfirmationApproved and may differ from the
// requested amount.
type Confirmation struct {
	Status ConfirmationStatus
	Amount decimal.Decimal
}

// ConfirmationProvider is the optional external approve/reject/delegate
// capability. A (nil, nil) return models a deliberate non-answer, which is
// distinct from a transport error.
type ConfirmationProvider interface {
	RequestConfirmation(ctx context.Context, req ConfirmationRequest) (*Confirmation, error)
}
