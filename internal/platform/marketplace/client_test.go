package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranovak/lendivest/internal/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token")
}

func TestListLoans(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loans/marketplace", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("remainingInvestment__gt"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":                  101,
				"rating":              "AA",
				"interestRate":        "6.99",
				"amount":              "50000",
				"remainingInvestment": "12000",
				"termInMonths":        48,
				"insured":             true,
			},
		})
	})

	loans, err := c.ListLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, int64(101), loans[0].ID)
	assert.Equal(t, domain.RatingAA, loans[0].Rating)
	assert.True(t, loans[0].InterestRate.Equal(decimal.RequireFromString("6.99")))
	assert.True(t, loans[0].RemainingInvestment.Equal(decimal.NewFromInt(12000)))
	assert.True(t, loans[0].Insured)
}

func TestGetLoanNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"loanNotFound","error_description":"no such loan"}`))
	})

	_, err := c.GetLoan(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetWallet(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet", r.URL.Path)
		_, _ = w.Write([]byte(`{"availableBalance":"1234.56","blockedBalance":"200"}`))
	})

	wallet, err := c.GetWallet(context.Background())
	require.NoError(t, err)
	assert.True(t, wallet.AvailableBalance.Equal(decimal.RequireFromString("1234.56")))
	assert.True(t, wallet.BlockedBalance.Equal(decimal.NewFromInt(200)))
}

func TestGetStatistics(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/statistics/overview", r.URL.Path)
		_, _ = w.Write([]byte(`{"riskPortfolio":[
			{"rating":"A","unpaid":"5000","paid":"1000"},
			{"rating":"B","unpaid":"2500"}
		]}`))
	})

	stats, err := c.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.InvestedPerRating[domain.RatingA].Equal(decimal.NewFromInt(5000)),
		"only the unpaid principal counts as invested")
	assert.True(t, stats.InvestedPerRating[domain.RatingB].Equal(decimal.NewFromInt(2500)))
}

func TestGetBlockedAmounts(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/blocked-amounts", r.URL.Path)
		_, _ = w.Write([]byte(`[{"loanId":7,"amount":"200"}]`))
	})

	blocked, err := c.GetBlockedAmounts(context.Background())
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, int64(7), blocked[0].LoanID)
	assert.True(t, blocked[0].Amount.Equal(decimal.NewFromInt(200)))
}

func TestInvestSendsBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/marketplace/investment", r.URL.Path)

		var body investRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(101), body.LoanID)
		assert.True(t, body.Amount.Equal(decimal.NewFromInt(600)))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Invest(context.Background(), 101, decimal.NewFromInt(600))
	require.NoError(t, err)
}

func TestInvestErrorMapping(t *testing.T) {
	cases := map[string]struct {
		status  int
		body    string
		wantErr error
	}{
		"insufficient balance": {http.StatusBadRequest, `{"error":"insufficientBalance"}`, domain.ErrInsufficientBalance},
		"loan withdrawn":       {http.StatusBadRequest, `{"error":"withdrawn"}`, domain.ErrLoanUnavailable},
		"conflict":             {http.StatusConflict, `{"error_description":"already fully invested"}`, domain.ErrLoanUnavailable},
		"rate limited":         {http.StatusTooManyRequests, `{}`, domain.ErrRateLimited},
		"unauthorized":         {http.StatusUnauthorized, `{}`, domain.ErrUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			err := c.Invest(context.Background(), 1, decimal.NewFromInt(200))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
