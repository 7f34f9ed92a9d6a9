package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veranovak/lendivest/internal/domain"
)

// multipartThreshold is the payload size above which the archiver switches
// from a single PutObject to a multipart upload.
const multipartThreshold = 8 * 1024 * 1024

// Archiver implements domain.SessionArchiver by serializing finished session
// reports to JSONL and uploading them to S3.
//
// Deleting archived sessions from the primary store is intentionally NOT done
// here; database retention is a separate, explicit step executed after the
// archive has been verified.
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver writing through the given BlobWriter.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// sessionLine is the first JSONL line of an archived report.
type sessionLine struct {
	Kind            string          `json:"kind"`
	SessionID       uuid.UUID       `json:"sessionId"`
	StartedAt       time.Time       `json:"startedAt"`
	FinishedAt      time.Time       `json:"finishedAt"`
	StartingBalance decimal.Decimal `json:"startingBalance"`
	FinalBalance    decimal.Decimal `json:"finalBalance"`
	InvestedTotal   decimal.Decimal `json:"investedTotal"`
	InvestmentCount int             `json:"investmentCount"`
	DryRun          bool            `json:"dryRun"`
}

// investmentLine is one archived investment.
type investmentLine struct {
	Kind                  string          `json:"kind"`
	LoanID                int64           `json:"loanId"`
	Amount                decimal.Decimal `json:"amount"`
	Rating                domain.Rating   `json:"rating"`
	RemainingTermInMonths int             `json:"remainingTermInMonths"`
}

// ArchiveSession serializes the report to JSONL (one session header line
// followed by one line per investment) and uploads it to
// archive/sessions/YYYY/MM/{session-id}.jsonl. It returns the object path.
func (a *Archiver) ArchiveSession(ctx context.Context, report domain.SessionReport) (string, error) {
	sess := report.Session

	lines := make([]any, 0, 1+len(report.Investments))
	lines = append(lines, sessionLine{
		Kind:            "session",
		SessionID:       sess.ID,
		StartedAt:       sess.StartedAt,
		FinishedAt:      sess.FinishedAt,
		StartingBalance: sess.StartingBalance,
		FinalBalance:    sess.FinalBalance,
		InvestedTotal:   sess.InvestedTotal,
		InvestmentCount: sess.InvestmentCount,
		DryRun:          sess.DryRun,
	})
	for _, inv := range report.Investments {
		lines = append(lines, investmentLine{
			Kind:                  "investment",
			LoanID:                inv.LoanID,
			Amount:                inv.Amount,
			Rating:                inv.Rating,
			RemainingTermInMonths: inv.RemainingTermInMonths,
		})
	}

	buf, err := marshalJSONL(lines)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive session %s: %w", sess.ID, err)
	}

	path := sessionPath(sess)
	if len(buf) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), 0)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return "", fmt.Errorf("s3blob: archive session %s upload: %w", sess.ID, err)
	}

	return path, nil
}

// sessionPath builds the S3 key for an archived session, partitioned by the
// year and month the session started.
//
//	archive/sessions/2025/06/8f7f7f1e-....jsonl
func sessionPath(sess domain.Session) string {
	return fmt.Sprintf("archive/sessions/%s/%s.jsonl",
		sess.StartedAt.Format("2006/01"), sess.ID)
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.SessionArchiver = (*Archiver)(nil)
