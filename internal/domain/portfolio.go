package domain

import "github.com/shopspring/decimal"

// Statistics is the marketplace's view of the investor's portfolio: how much
// principal is currently at work per rating. A nil *Statistics is a valid
// input everywhere and is treated as an all-zero baseline.
type Statistics struct {
	InvestedPerRating map[Rating]decimal.Decimal
}

// EmptyStatistics returns a zero baseline used when the marketplace reports
// no portfolio data (fresh accounts, maintenance windows).
func EmptyStatistics() *Statistics {
	return &Statistics{InvestedPerRating: map[Rating]decimal.Decimal{}}
}

// PortfolioOverview is the per-rating share breakdown strategies rank against.
// It merges marketplace statistics with investments the current session has
// already made or registered.
type PortfolioOverview struct {
	TotalInvested     decimal.Decimal
	investedPerRating map[Rating]decimal.Decimal
}

// NewPortfolioOverview builds an overview from marketplace statistics plus the
// session's known investments. stats may be nil.
func NewPortfolioOverview(stats *Statistics, investments []Investment) PortfolioOverview {
	per := make(map[Rating]decimal.Decimal, len(KnownRatings))
	if stats != nil {
		for r, amt := range stats.InvestedPerRating {
			per[r] = per[r].Add(amt)
		}
	}
	for _, inv := range investments {
		per[inv.Rating] = per[inv.Rating].Add(inv.Amount)
	}

	total := decimal.Zero
	for _, amt := range per {
		total = total.Add(amt)
	}
	return PortfolioOverview{TotalInvested: total, investedPerRating: per}
}

// Invested returns the amount currently at work in the given rating.
func (o PortfolioOverview) Invested(r Rating) decimal.Decimal {
	return o.investedPerRating[r]
}

// ShareOf returns the fraction (0..1) of the portfolio held in the given
// rating. An empty portfolio has share zero everywhere.
func (o PortfolioOverview) ShareOf(r Rating) decimal.Decimal {
	if o.TotalInvested.IsZero() {
		return decimal.Zero
	}
	return o.investedPerRating[r].Div(o.TotalInvested)
}
