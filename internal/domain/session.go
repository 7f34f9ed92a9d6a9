package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session is one investor run: balance in, investments out.
type Session struct {
	ID              uuid.UUID
	StartedAt       time.Time
	FinishedAt      time.Time
	StartingBalance decimal.Decimal
	FinalBalance    decimal.Decimal
	InvestedTotal   decimal.Decimal
	InvestmentCount int
	DryRun          bool
}

// SessionReport is the full record of a run, persisted by the orchestrator
// after the investor loop returns and archived to object storage.
type SessionReport struct {
	Session     Session
	Investments []Investment
}
