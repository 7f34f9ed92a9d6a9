package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recommendation is a strategy's proposal to invest a specific amount into a
// specific loan. A recommendation is consumed by exactly one decision attempt.
type Recommendation struct {
	Loan                 Loan
	Amount               decimal.Decimal
	ConfirmationRequired bool
	// ProtectionWindowEnd, when set, marks the end of the investor-protection
	// window during which direct investment is disallowed. Nil means no window.
	ProtectionWindowEnd *time.Time
}

// ProtectionActive reports whether the recommendation's protection window is
// still open at the given instant.
func (r Recommendation) ProtectionActive(now time.Time) bool {
	return r.ProtectionWindowEnd != nil && now.Before(*r.ProtectionWindowEnd)
}

// OutcomeKind enumerates the terminal results of a decision attempt.
type OutcomeKind int

const (
	// OutcomeInvested means money was committed (or would have been, in a dry
	// run). Amount carries the confirmed figure.
	OutcomeInvested OutcomeKind = iota
	// OutcomeDelegated means the decision was handed to the external
	// confirmation service.
	OutcomeDelegated
	// OutcomeRejected means the opportunity was declined for good.
	OutcomeRejected
	// OutcomeFailed means the attempt could not complete because a required
	// answer never arrived. No side effect happened.
	OutcomeFailed
)

// String returns the lower-case name of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInvested:
		return "invested"
	case OutcomeDelegated:
		return "delegated"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DecisionOutcome is the result of running the decision protocol over one
// recommendation. Amount is meaningful only for OutcomeInvested.
type DecisionOutcome struct {
	Kind   OutcomeKind
	Amount decimal.Decimal
}

// Invested constructs an OutcomeInvested with the confirmed amount.
func Invested(amount decimal.Decimal) DecisionOutcome {
	return DecisionOutcome{Kind: OutcomeInvested, Amount: amount}
}

// Delegated constructs an OutcomeDelegated.
func Delegated() DecisionOutcome { return DecisionOutcome{Kind: OutcomeDelegated} }

// Rejected constructs an OutcomeRejected.
func Rejected() DecisionOutcome { return DecisionOutcome{Kind: OutcomeRejected} }

// Failed constructs an OutcomeFailed.
func Failed() DecisionOutcome { return DecisionOutcome{Kind: OutcomeFailed} }
