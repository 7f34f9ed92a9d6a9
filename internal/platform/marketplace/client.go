package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
)

// Client is the REST client for the loan marketplace API. It implements
// domain.Marketplace.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a marketplace REST client.
//
// baseURL is the API root, e.g. "https://api.marketplace.example/v1".
// token is the OAuth bearer token of the investor account.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient overrides the underlying HTTP client, mainly for tests.
func (c *Client) SetHTTPClient(hc *http.Client) { c.httpClient = hc }

// ListLoans returns every loan currently open for investment.
func (c *Client) ListLoans(ctx context.Context) ([]domain.Loan, error) {
	params := url.Values{}
	params.Set("remainingInvestment__gt", "0")

	body, err := c.doRequest(ctx, http.MethodGet, "/loans/marketplace?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("marketplace: list loans: %w", err)
	}

	var dtos []loanDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("marketplace: decode loans: %w", err)
	}

	loans := make([]domain.Loan, len(dtos))
	for i, d := range dtos {
		loans[i] = d.toDomain()
	}
	return loans, nil
}

// GetLoan returns a single loan by id, including detail-only fields such as
// the borrower's active loan count.
func (c *Client) GetLoan(ctx context.Context, id int64) (domain.Loan, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/loans/%d", id), nil)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("marketplace: get loan %d: %w", id, err)
	}

	var dto loanDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.Loan{}, fmt.Errorf("marketplace: decode loan: %w", err)
	}
	return dto.toDomain(), nil
}

// GetBlockedAmounts returns amounts committed to loans that have not settled
// into investments yet.
func (c *Client) GetBlockedAmounts(ctx context.Context) ([]domain.BlockedAmount, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/wallet/blocked-amounts", nil)
	if err != nil {
		return nil, fmt.Errorf("marketplace: get blocked amounts: %w", err)
	}

	var dtos []blockedAmountDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("marketplace: decode blocked amounts: %w", err)
	}

	out := make([]domain.BlockedAmount, len(dtos))
	for i, d := range dtos {
		out[i] = domain.BlockedAmount{LoanID: d.LoanID, Amount: d.Amount}
	}
	return out, nil
}

// GetStatistics returns the investor's per-rating portfolio breakdown. A
// fresh account without statistics yields domain.ErrNotFound.
func (c *Client) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/statistics/overview", nil)
	if err != nil {
		return nil, fmt.Errorf("marketplace: get statistics: %w", err)
	}

	var dto statisticsDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("marketplace: decode statistics: %w", err)
	}
	return dto.toDomain(), nil
}

// GetWallet returns the investor's current balances.
func (c *Client) GetWallet(ctx context.Context) (domain.Wallet, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/wallet", nil)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("marketplace: get wallet: %w", err)
	}

	var dto walletDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.Wallet{}, fmt.Errorf("marketplace: decode wallet: %w", err)
	}
	return domain.Wallet{
		AvailableBalance: dto.AvailableBalance,
		BlockedBalance:   dto.BlockedBalance,
	}, nil
}

// Invest commits the given amount into the loan.
func (c *Client) Invest(ctx context.Context, loanID int64, amount decimal.Decimal) error {
	req := investRequest{LoanID: loanID, Amount: amount}
	if _, err := c.doRequest(ctx, http.MethodPost, "/marketplace/investment", req); err != nil {
		return fmt.Errorf("marketplace: invest %s into loan %d: %w", amount, loanID, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest builds, authorizes, sends, and reads an HTTP request against the
// marketplace API.
func (c *Client) doRequest(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to domain sentinel errors so
// callers can branch on errors.Is instead of status codes.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, apiErr.Description)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, apiErr.Description)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, apiErr.Description)
	case http.StatusBadRequest:
		switch apiErr.Error {
		case "insufficientBalance":
			return domain.ErrInsufficientBalance
		case "cancelled", "withdrawn", "overInvestment", "alreadyCovered":
			return fmt.Errorf("%w: %s", domain.ErrLoanUnavailable, apiErr.Error)
		}
		return fmt.Errorf("bad request: %s (%s)", apiErr.Description, apiErr.Error)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrLoanUnavailable, apiErr.Description)
	default:
		return fmt.Errorf("HTTP %d: %s (%s)", statusCode, apiErr.Description, apiErr.Error)
	}
}
