package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranovak/lendivest/internal/domain"
)

type captureWriter struct {
	path        string
	contentType string
	data        []byte
	multipart   bool
}

func (c *captureWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	c.path = path
	c.contentType = contentType
	buf, err := io.ReadAll(data)
	c.data = buf
	return err
}

func (c *captureWriter) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	c.path = path
	c.multipart = true
	buf, err := io.ReadAll(data)
	c.data = buf
	return err
}

func TestArchiveSession(t *testing.T) {
	writer := &captureWriter{}
	archiver := NewArchiver(writer)

	id := uuid.New()
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report := domain.SessionReport{
		Session: domain.Session{
			ID:              id,
			StartedAt:       started,
			FinishedAt:      started.Add(time.Minute),
			StartingBalance: decimal.NewFromInt(1000),
			FinalBalance:    decimal.NewFromInt(700),
			InvestedTotal:   decimal.NewFromInt(300),
			InvestmentCount: 1,
		},
		Investments: []domain.Investment{
			{LoanID: 101, Amount: decimal.NewFromInt(300), Rating: domain.RatingA, RemainingTermInMonths: 36},
		},
	}

	path, err := archiver.ArchiveSession(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, "archive/sessions/2025/06/"+id.String()+".jsonl", path)
	assert.Equal(t, path, writer.path)
	assert.Equal(t, "application/x-ndjson", writer.contentType)
	assert.False(t, writer.multipart, "a one-investment report fits a single put")

	var lines []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(writer.data))
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "session", lines[0]["kind"])
	assert.Equal(t, id.String(), lines[0]["sessionId"])
	assert.Equal(t, "investment", lines[1]["kind"])
	assert.Equal(t, float64(101), lines[1]["loanId"])
}
