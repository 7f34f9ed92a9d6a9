package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veranovak/lendivest/internal/domain"
)

// SessionStore implements domain.SessionStore using PostgreSQL.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new SessionStore backed by the given pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Create records the start of a session.
func (s *SessionStore) Create(ctx context.Context, sess domain.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, started_at, starting_balance, dry_run)
		VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.StartedAt, sess.StartingBalance, sess.DryRun,
	)
	if err != nil {
		return fmt.Errorf("postgres: create session %s: %w", sess.ID, err)
	}
	return nil
}

// Finish records a session's outcome.
func (s *SessionStore) Finish(ctx context.Context, sess domain.Session) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET finished_at = $2, final_balance = $3, invested_total = $4, investment_count = $5
		WHERE id = $1`,
		sess.ID, sess.FinishedAt, sess.FinalBalance, sess.InvestedTotal, sess.InvestmentCount,
	)
	if err != nil {
		return fmt.Errorf("postgres: finish session %s: %w", sess.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: finish session %s: %w", sess.ID, domain.ErrNotFound)
	}
	return nil
}

// ListRecent returns the most recently started sessions, newest first.
func (s *SessionStore) ListRecent(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, COALESCE(finished_at, started_at),
			starting_balance, COALESCE(final_balance, starting_balance),
			invested_total, investment_count, dry_run
		FROM sessions
		ORDER BY started_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var sess domain.Session
		if err := rows.Scan(
			&sess.ID, &sess.StartedAt, &sess.FinishedAt,
			&sess.StartingBalance, &sess.FinalBalance,
			&sess.InvestedTotal, &sess.InvestmentCount, &sess.DryRun,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent sessions: %w", err)
	}
	return sessions, nil
}

// Compile-time interface check.
var _ domain.SessionStore = (*SessionStore)(nil)
