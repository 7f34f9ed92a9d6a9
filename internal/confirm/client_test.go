package confirm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranovak/lendivest/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token")
}

func request() domain.ConfirmationRequest {
	return domain.ConfirmationRequest{
		RequestID: uuid.New(),
		LoanID:    101,
		Amount:    decimal.NewFromInt(600),
	}
}

func TestRequestConfirmationApproved(t *testing.T) {
	req := request()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body confirmationRequestDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, req.RequestID.String(), body.RequestID)
		assert.Equal(t, int64(101), body.LoanID)

		_, _ = w.Write([]byte(`{"status":"approved","amount":"400"}`))
	})

	conf, err := c.RequestConfirmation(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, conf)
	assert.Equal(t, domain.ConfirmationApproved, conf.Status)
	assert.True(t, conf.Amount.Equal(decimal.NewFromInt(400)))
}

func TestRequestConfirmationNonAnswer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	conf, err := c.RequestConfirmation(context.Background(), request())
	require.NoError(t, err, "a deliberate non-answer is not a transport fault")
	assert.Nil(t, conf)
}

func TestRequestConfirmationUnknownStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"maybe"}`))
	})

	_, err := c.RequestConfirmation(context.Background(), request())
	assert.Error(t, err)
}

func TestRequestConfirmationServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.RequestConfirmation(context.Background(), request())
	assert.Error(t, err)
}
