package domain

import "github.com/shopspring/decimal"

// Investment records money put into a single loan, either during this run or
// in an earlier one. Once made it is never removed from a session ledger.
type Investment struct {
	LoanID                int64
	Amount                decimal.Decimal
	Rating                Rating
	RemainingTermInMonths int
}

// BlockedAmount is money the marketplace holds against a loan that has not
// settled yet. Blocked amounts reduce the investable balance.
type BlockedAmount struct {
	LoanID int64
	Amount decimal.Decimal
}

// Wallet is the investor's account balance as reported by the marketplace.
type Wallet struct {
	AvailableBalance decimal.Decimal
	BlockedBalance   decimal.Decimal
}
