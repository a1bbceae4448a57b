package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/astro-otter/otter"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedRowID = uuid.MustParse("0190f3c2-7a1e-7cc0-8a1b-8f0e2d6c9b11")

func newMockRepository(t *testing.T) (pgxmock.PgxPoolIface, *PostgresTransientRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	repo := NewPostgresTransientRepository(mock, "transients")
	repo.newID = func() (uuid.UUID, error) { return fixedRowID, nil }
	return mock, repo
}

func TestWithClockAndNowMillis(t *testing.T) {
	repo := NewPostgresTransientRepository(nil, "transients")
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.withClock(func() time.Time { return fixed })
	assert.Equal(t, fixed.UnixMilli(), repo.nowMillis())

	repo.withClock(nil)
	assert.Equal(t, fixed.UnixMilli(), repo.nowMillis())
}

func TestPostgresTransientRepository_Upsert(t *testing.T) {
	mock, repo := newMockRepository(t)
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo.withClock(func() time.Time { return fixed })

	body := map[string]any{"name": map[string]any{"default_name": "AT2018hyz"}}
	rows := pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(fixedRowID.String(), int64(100), fixed.UnixMilli())
	mock.ExpectQuery(`INSERT INTO "transients"`).
		WithArgs(fixedRowID, "AT2018hyz", pgxmock.AnyArg(), fixed.UnixMilli()).
		WillReturnRows(rows)

	doc, err := repo.Upsert(context.Background(), "AT2018hyz", body)
	require.NoError(t, err)
	assert.Equal(t, fixedRowID, doc.ID)
	assert.Equal(t, "AT2018hyz", doc.Name)
	assert.Equal(t, int64(100), doc.CreatedAt)
	assert.Equal(t, fixed.UnixMilli(), doc.UpdatedAt)
	assert.Equal(t, body, doc.Body)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransientRepository_UpsertErrors(t *testing.T) {
	mock, repo := newMockRepository(t)

	_, err := repo.Upsert(context.Background(), "", map[string]any{})
	assert.ErrorIs(t, err, otter.ErrMissingField)

	_, err = repo.Upsert(context.Background(), "x", map[string]any{"bad": make(chan int)})
	var oe *otter.OtterError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, otter.ErrCodeInvalidDocument, oe.Code)

	mock.ExpectQuery(`INSERT INTO "transients"`).WillReturnError(errors.New("connection reset"))
	_, err = repo.Upsert(context.Background(), "x", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	empty := NewPostgresTransientRepository(mock, "")
	_, err = empty.Upsert(context.Background(), "x", map[string]any{})
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransientRepository_Get(t *testing.T) {
	mock, repo := newMockRepository(t)

	rows := pgxmock.NewRows([]string{"id", "name", "document", "created_at", "updated_at"}).
		AddRow(fixedRowID.String(), "AT2019dsg", []byte(`{"name":"AT2019dsg","z":[{"value":0.051}]}`), int64(1), int64(2))
	mock.ExpectQuery(`SELECT id, name, document, created_at, updated_at FROM "transients" WHERE name = \$1`).
		WithArgs("AT2019dsg").
		WillReturnRows(rows)

	doc, err := repo.Get(context.Background(), "AT2019dsg")
	require.NoError(t, err)
	assert.Equal(t, fixedRowID, doc.ID)
	assert.Equal(t, "AT2019dsg", doc.Body["name"])
	assert.Equal(t, []any{map[string]any{"value": 0.051}}, doc.Body["z"])
	assert.Equal(t, int64(2), doc.UpdatedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransientRepository_GetNotFound(t *testing.T) {
	mock, repo := newMockRepository(t)

	mock.ExpectQuery(`SELECT id, name, document`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, otter.ErrTransientNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransientRepository_List(t *testing.T) {
	mock, repo := newMockRepository(t)

	other := uuid.MustParse("0190f3c2-7a1e-7cc0-8a1b-8f0e2d6c9b12")
	rows := pgxmock.NewRows([]string{"id", "name", "document", "created_at", "updated_at"}).
		AddRow(fixedRowID.String(), "AT2018hyz", []byte(`{"name":"AT2018hyz"}`), int64(1), int64(1)).
		AddRow(other.String(), "AT2019dsg", []byte(`{"name":"AT2019dsg"}`), int64(2), int64(2))
	mock.ExpectQuery(`ORDER BY name LIMIT \$1 OFFSET \$2`).WithArgs(100, 0).WillReturnRows(rows)

	docs, err := repo.List(context.Background(), otter.ListRequest{Offset: -3})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "AT2018hyz", docs[0].Name)
	assert.Equal(t, other, docs[1].ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransientRepository_ListBadDocument(t *testing.T) {
	mock, repo := newMockRepository(t)

	rows := pgxmock.NewRows([]string{"id", "name", "document", "created_at", "updated_at"}).
		AddRow(fixedRowID.String(), "AT2018hyz", []byte(`{not json`), int64(1), int64(1))
	mock.ExpectQuery(`ORDER BY name`).WithArgs(10, 20).WillReturnRows(rows)

	_, err := repo.List(context.Background(), otter.ListRequest{Limit: 10, Offset: 20})
	var oe *otter.OtterError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, otter.ErrCodeInvalidDocument, oe.Code)
}

func TestPostgresTransientRepository_Delete(t *testing.T) {
	mock, repo := newMockRepository(t)

	mock.ExpectExec(`DELETE FROM "transients" WHERE name = \$1`).
		WithArgs("AT2018hyz").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM "transients"`).
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "AT2018hyz"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), otter.ErrTransientNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransientRepository_Count(t *testing.T) {
	mock, repo := newMockRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "transients"`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	require.NoError(t, mock.ExpectationsWereMet())
}
