package marketplace

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
)

// loanDTO mirrors the marketplace's loan representation on both the listing
// and detail endpoints.
type loanDTO struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Story               string          `json:"story"`
	Purpose             string          `json:"purpose"`
	Region              string          `json:"region"`
	MainIncomeType      string          `json:"mainIncomeType"`
	Rating              string          `json:"rating"`
	InterestRate        decimal.Decimal `json:"interestRate"`
	Amount              decimal.Decimal `json:"amount"`
	RemainingInvestment decimal.Decimal `json:"remainingInvestment"`
	TermInMonths        int             `json:"termInMonths"`
	DatePublished       time.Time       `json:"datePublished"`
	Insured             bool            `json:"insured"`
	ActiveLoansCount    int             `json:"activeLoansCount"`
}

func (d loanDTO) toDomain() domain.Loan {
	return domain.Loan{
		ID:                  d.ID,
		Name:                d.Name,
		Story:               d.Story,
		Purpose:             d.Purpose,
		Region:              d.Region,
		MainIncomeType:      d.MainIncomeType,
		Rating:              domain.Rating(d.Rating),
		InterestRate:        d.InterestRate,
		Amount:              d.Amount,
		RemainingInvestment: d.RemainingInvestment,
		TermInMonths:        d.TermInMonths,
		DatePublished:       d.DatePublished,
		Insured:             d.Insured,
		ActiveLoansCount:    d.ActiveLoansCount,
	}
}

type walletDTO struct {
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	BlockedBalance   decimal.Decimal `json:"blockedBalance"`
}

type blockedAmountDTO struct {
	LoanID int64           `json:"loanId"`
	Amount decimal.Decimal `json:"amount"`
}

// riskPortfolioDTO is one per-rating row of the statistics overview.
type riskPortfolioDTO struct {
	Rating   string          `json:"rating"`
	Unpaid   decimal.Decimal `json:"unpaid"`
	Paid     decimal.Decimal `json:"paid"`
	Due      decimal.Decimal `json:"due"`
	TotalSum decimal.Decimal `json:"totalAmount"`
}

type statisticsDTO struct {
	RiskPortfolio []riskPortfolioDTO `json:"riskPortfolio"`
}

func (d statisticsDTO) toDomain() *domain.Statistics {
	stats := domain.EmptyStatistics()
	for _, row := range d.RiskPortfolio {
		stats.InvestedPerRating[domain.Rating(row.Rating)] = row.Unpaid
	}
	return stats
}

// investRequest is the body of the invest call.
type investRequest struct {
	LoanID int64           `json:"loanId"`
	Amount decimal.Decimal `json:"amount"`
}

// errorResponse is the marketplace's error envelope.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}
