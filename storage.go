package otter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TransientDocument is a stored transient payload.
type TransientDocument struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Body      map[string]any `json:"body"`
	CreatedAt int64          `json:"createdAt"`
	UpdatedAt int64          `json:"updatedAt"`
}

// ListRequest pages through stored transients in name order.
type ListRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// TransientRepository persists transient documents keyed by name.
type TransientRepository interface {
	// Upsert inserts the document or replaces the body of the one with the same
	// name, returning the stored row.
	Upsert(ctx context.Context, name string, body map[string]any) (*TransientDocument, error)
	Get(ctx context.Context, name string) (*TransientDocument, error)
	List(ctx context.Context, req ListRequest) ([]*TransientDocument, error)
	Delete(ctx context.Context, name string) error
	Count(ctx context.Context) (int64, error)
}

// Ingester builds transients from raw documents and stores them.
type Ingester interface {
	Ingest(ctx context.Context, records []Record) (*IngestResult, error)
}

// IngestResult reports the outcome of one ingest batch. A record is either
// successful or failed; a successful record may also be partial.
type IngestResult struct {
	Successful []*TransientDocument `json:"successful"`
	Partial    []RecordError        `json:"partial"`
	Failed     []RecordError        `json:"failed"`
	TotalCount int                  `json:"totalCount"`
	Duration   time.Duration        `json:"duration"`
}

// RecordError describes why an input record, or part of it, was rejected.
type RecordError struct {
	Index   int            `json:"index"`
	Name    string         `json:"name,omitempty"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}
