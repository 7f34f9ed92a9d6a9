package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veranovak/lendivest/internal/domain"
)

// LoanService serves loan detail reads, checking the cache before hitting the
// marketplace. It is the LoanReader used by the seeding fan-out.
type LoanService struct {
	market domain.Marketplace
	cache  domain.LoanCache
	logger *slog.Logger
}

// NewLoanService creates a LoanService. cache may be nil, in which case every
// read goes to the marketplace.
func NewLoanService(market domain.Marketplace, cache domain.LoanCache, logger *slog.Logger) *LoanService {
	return &LoanService{
		market: market,
		cache:  cache,
		logger: logger.With(slog.String("component", "loan_service")),
	}
}

// GetLoan retrieves a loan by ID, checking the cache first and falling back
// to the marketplace on a cache miss.
func (s *LoanService) GetLoan(ctx context.Context, id int64) (domain.Loan, error) {
	if s.cache != nil {
		loan, err := s.cache.Get(ctx, id)
		if err == nil {
			return loan, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "loan_service: cache read failed",
				slog.Int64("loan_id", id),
				slog.String("error", err.Error()),
			)
			// Non-fatal: fall through to the marketplace.
		}
	}

	loan, err := s.market.GetLoan(ctx, id)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("loan_service: get loan %d: %w", id, err)
	}

	// Back-fill cache; log but do not fail on cache write errors.
	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, loan); cacheErr != nil {
			s.logger.WarnContext(ctx, "loan_service: cache set failed",
				slog.Int64("loan_id", id),
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	return loan, nil
}
