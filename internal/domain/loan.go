package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rating is the marketplace risk grade assigned to a loan.
type Rating string

const (
	RatingAAAAA Rating = "AAAAA"
	RatingAAAA  Rating = "AAAA"
	RatingAAA   Rating = "AAA"
	RatingAA    Rating = "AA"
	RatingA     Rating = "A"
	RatingB     Rating = "B"
	RatingC     Rating = "C"
	RatingD     Rating = "D"
)

// KnownRatings lists all ratings from safest to riskiest. Iteration over
// rating-keyed maps should use this slice to keep output deterministic.
var KnownRatings = []Rating{
	RatingAAAAA, RatingAAAA, RatingAAA, RatingAA,
	RatingA, RatingB, RatingC, RatingD,
}

// IsKnown reports whether r is one of the marketplace's published grades.
func (r Rating) IsKnown() bool {
	for _, k := range KnownRatings {
		if r == k {
			return true
		}
	}
	return false
}

// Loan is an immutable snapshot of a marketplace listing. The investor core
// never mutates a Loan; fresh snapshots are fetched each polling cycle.
type Loan struct {
	ID                  int64
	Name                string
	Story               string
	Purpose             string
	Region              string
	MainIncomeType      string
	Rating              Rating
	InterestRate        decimal.Decimal // annual rate in percent
	Amount              decimal.Decimal // total principal
	RemainingInvestment decimal.Decimal // still open for investors
	TermInMonths        int
	DatePublished       time.Time
	Insured             bool
	ActiveLoansCount    int // borrower's other active loans on the platform
}
