package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentStore persists investments across runs. The investor core reads
// previously made investments once at loop start; writing back is the
// orchestrator's job after the loop returns.
type InvestmentStore interface {
	InsertBatch(ctx context.Context, sessionID uuid.UUID, investments []Investment) error
	ListActive(ctx context.Context) ([]Investment, error)
	SumByRating(ctx context.Context) (map[Rating]decimal.Decimal, error)
}

// SessionStore persists session records.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Finish(ctx context.Context, s Session) error
	ListRecent(ctx context.Context, limit int) ([]Session, error)
}
