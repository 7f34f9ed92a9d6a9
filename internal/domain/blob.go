package domain

import (
	"context"
	"io"
)

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// SessionArchiver uploads a finished session report to cold storage so runs
// can be audited long after the database rows are gone.
type SessionArchiver interface {
	ArchiveSession(ctx context.Context, report SessionReport) (string, error)
}
