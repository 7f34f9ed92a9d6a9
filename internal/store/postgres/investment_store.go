package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
)

// InvestmentStore implements domain.InvestmentStore using PostgreSQL.
type InvestmentStore struct {
	pool *pgxpool.Pool
}

// NewInvestmentStore creates a new InvestmentStore backed by the given pool.
func NewInvestmentStore(pool *pgxpool.Pool) *InvestmentStore {
	return &InvestmentStore{pool: pool}
}

const investmentSelectCols = `loan_id, amount, rating, remaining_term_months`

func scanInvestmentRows(rows pgx.Rows) ([]domain.Investment, error) {
	var investments []domain.Investment
	for rows.Next() {
		var inv domain.Investment
		if err := rows.Scan(
			&inv.LoanID, &inv.Amount, &inv.Rating, &inv.RemainingTermInMonths,
		); err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

// InsertBatch writes the investments made during one session using pgx Batch.
func (s *InvestmentStore) InsertBatch(ctx context.Context, sessionID uuid.UUID, investments []domain.Investment) error {
	if len(investments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO investments (
			session_id, loan_id, amount, rating, remaining_term_months
		) VALUES ($1, $2, $3, $4, $5)`

	for _, inv := range investments {
		batch.Queue(query,
			sessionID, inv.LoanID, inv.Amount, inv.Rating, inv.RemainingTermInMonths,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range investments {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert investment batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListActive returns investments whose loans are still being repaid.
func (s *InvestmentStore) ListActive(ctx context.Context) ([]domain.Investment, error) {
	query := `SELECT ` + investmentSelectCols + ` FROM investments WHERE active ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active investments: %w", err)
	}
	defer rows.Close()

	investments, err := scanInvestmentRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan active investments: %w", err)
	}
	return investments, nil
}

// SumByRating returns the total active principal per rating.
func (s *InvestmentStore) SumByRating(ctx context.Context) (map[domain.Rating]decimal.Decimal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT rating, COALESCE(SUM(amount), 0) FROM investments WHERE active GROUP BY rating`)
	if err != nil {
		return nil, fmt.Errorf("postgres: sum investments by rating: %w", err)
	}
	defer rows.Close()

	sums := make(map[domain.Rating]decimal.Decimal)
	for rows.Next() {
		var rating domain.Rating
		var sum decimal.Decimal
		if err := rows.Scan(&rating, &sum); err != nil {
			return nil, fmt.Errorf("postgres: scan rating sum: %w", err)
		}
		sums[rating] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: sum investments by rating: %w", err)
	}
	return sums, nil
}

// Compile-time interface check.
var _ domain.InvestmentStore = (*InvestmentStore)(nil)
