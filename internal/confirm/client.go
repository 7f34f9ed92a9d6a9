package confirm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
)

// Client talks to an external confirmation service that approves, rejects, or
// takes over proposed investments. It implements domain.ConfirmationProvider.
//
// A 204 response means the service deliberately gave no answer; Client maps
// it to (nil, nil) so the decision protocol can treat it as a non-answer
// rather than a transport fault.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient creates a confirmation client for the given endpoint.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type confirmationRequestDTO struct {
	RequestID string          `json:"requestId"`
	LoanID    int64           `json:"loanId"`
	Amount    decimal.Decimal `json:"amount"`
}

type confirmationResponseDTO struct {
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
}

// RequestConfirmation submits the proposed investment and waits for the
// service's verdict. The call blocks for the service's decision; use the
// context to bound it.
func (c *Client) RequestConfirmation(ctx context.Context, req domain.ConfirmationRequest) (*domain.Confirmation, error) {
	dto := confirmationRequestDTO{
		RequestID: req.RequestID.String(),
		LoanID:    req.LoanID,
		Amount:    req.Amount,
	}
	body, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("confirm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("confirm: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("confirm: request %s: %w", req.RequestID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("confirm: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("confirm: request %s: HTTP %d: %s", req.RequestID, resp.StatusCode, respBody)
	}

	var out confirmationResponseDTO
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("confirm: decode response: %w", err)
	}

	status := domain.ConfirmationStatus(out.Status)
	switch status {
	case domain.ConfirmationApproved, domain.ConfirmationRejected, domain.ConfirmationDelegated:
	default:
		return nil, fmt.Errorf("confirm: request %s: unknown status %q", req.RequestID, out.Status)
	}

	return &domain.Confirmation{Status: status, Amount: out.Amount}, nil
}
