package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/astro-otter/otter"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type transientPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresTransientRepository stores one JSONB document per transient, keyed by name.
type PostgresTransientRepository struct {
	pool    transientPool
	table   string
	nowFunc func() time.Time
	newID   func() (uuid.UUID, error)
}

var _ otter.TransientRepository = (*PostgresTransientRepository)(nil)

func NewPostgresTransientRepository(pool transientPool, table string) *PostgresTransientRepository {
	return &PostgresTransientRepository{
		pool:    pool,
		table:   table,
		nowFunc: time.Now,
		newID:   uuid.NewV7,
	}
}

func (r *PostgresTransientRepository) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	r.nowFunc = now
}

func (r *PostgresTransientRepository) nowMillis() int64 {
	if r.nowFunc == nil {
		return time.Now().UnixMilli()
	}
	return r.nowFunc().UnixMilli()
}

func (r *PostgresTransientRepository) tableName() (string, error) {
	if r.table == "" {
		return "", fmt.Errorf("transient table name cannot be empty")
	}
	return quoteIdentifier(r.table), nil
}

func (r *PostgresTransientRepository) Upsert(ctx context.Context, name string, body map[string]any) (*otter.TransientDocument, error) {
	if name == "" {
		return nil, otter.NewMissingFieldError(otter.KeyName)
	}
	table, err := r.tableName()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, otter.NewInvalidDocumentError("marshal transient document", err)
	}

	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("generate row id: %w", err)
	}
	now := r.nowMillis()

	query := fmt.Sprintf(
		`INSERT INTO %s (id, name, document, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (name)
			DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
			RETURNING id, created_at, updated_at`,
		table,
	)

	var rawID any
	doc := &otter.TransientDocument{Name: name, Body: body}
	if err := r.pool.QueryRow(ctx, query, id, name, payload, now).Scan(&rawID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert transient %q: %w", name, err)
	}
	storedID, ok := scannedUUID(rawID)
	if !ok {
		return nil, fmt.Errorf("upsert transient %q: unexpected id %v", name, rawID)
	}
	doc.ID = storedID

	return doc, nil
}

func (r *PostgresTransientRepository) Get(ctx context.Context, name string) (*otter.TransientDocument, error) {
	table, err := r.tableName()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, name, document, created_at, updated_at FROM %s WHERE name = $1`, table)
	doc, err := scanTransient(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, otter.NewTransientNotFoundError(name)
		}
		return nil, fmt.Errorf("select transient %q: %w", name, err)
	}
	return doc, nil
}

func (r *PostgresTransientRepository) List(ctx context.Context, req otter.ListRequest) ([]*otter.TransientDocument, error) {
	table, err := r.tableName()
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT id, name, document, created_at, updated_at FROM %s ORDER BY name LIMIT $1 OFFSET $2`, table)
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query transients: %w", err)
	}
	defer rows.Close()

	var docs []*otter.TransientDocument
	for rows.Next() {
		doc, err := scanTransient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transient: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transients: %w", err)
	}
	return docs, nil
}

func (r *PostgresTransientRepository) Delete(ctx context.Context, name string) error {
	table, err := r.tableName()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, table)
	tag, err := r.pool.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("delete transient %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return otter.NewTransientNotFoundError(name)
	}
	return nil
}

func (r *PostgresTransientRepository) Count(ctx context.Context) (int64, error) {
	table, err := r.tableName()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transients: %w", err)
	}
	return n, nil
}

func scanTransient(row pgx.Row) (*otter.TransientDocument, error) {
	var (
		rawID   any
		payload []byte
		doc     otter.TransientDocument
	)
	if err := row.Scan(&rawID, &doc.Name, &payload, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}

	id, ok := scannedUUID(rawID)
	if !ok {
		return nil, fmt.Errorf("unexpected id %v for transient %q", rawID, doc.Name)
	}
	doc.ID = id

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &doc.Body); err != nil {
			return nil, otter.NewInvalidDocumentError(fmt.Sprintf("decode stored document of %q", doc.Name), err)
		}
	}
	return &doc, nil
}
