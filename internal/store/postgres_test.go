package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/import-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresFindRecordByKey(t *testing.T) {
	st, mock := newMockStore(t)

	rec := model.PropertyRecord{PropertyStreet: "123 Main St", PropertyCity: "Austin"}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, record, created_at, updated_at FROM property_records").
		WithArgs("org-1", "123 main st|austin|TX|78701").
		WillReturnRows(pgxmock.NewRows([]string{"id", "record", "created_at", "updated_at"}).
			AddRow("rec-1", payload, now, now))

	got, err := st.FindRecordByKey(context.Background(), "org-1", "123 main st|austin|TX|78701")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, "org-1", got.OrgID)
	assert.Equal(t, "123 Main St", got.PropertyStreet)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindRecordByKeyNoMatch(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, record, created_at, updated_at FROM property_records").
		WithArgs("org-1", "missing|||").
		WillReturnError(pgx.ErrNoRows)

	got, err := st.FindRecordByKey(context.Background(), "org-1", "missing|||")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertRecords(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"property_records"},
		[]string{"id", "org_id", "dedup_key", "record", "created_at", "updated_at"}).
		WillReturnResult(2)

	records := []InsertRecord{
		{Record: &model.PropertyRecord{ID: "rec-1", OrgID: "org-1", PropertyStreet: "123 Main St"}, DedupKey: "123 main st|||"},
		{Record: &model.PropertyRecord{ID: "rec-2", OrgID: "org-1", PropertyStreet: "124 Main St"}, DedupKey: "124 main st|||"},
	}
	require.NoError(t, st.InsertRecords(context.Background(), records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertRecordsEmpty(t *testing.T) {
	st, mock := newMockStore(t)
	require.NoError(t, st.InsertRecords(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRecord(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE property_records SET record").
		WithArgs(pgxmock.AnyArg(), "123 main st|||", pgxmock.AnyArg(), "rec-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	rec := &model.PropertyRecord{PropertyStreet: "123 Main St"}
	require.NoError(t, st.UpdateRecord(context.Background(), "rec-1", rec, "123 main st|||"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRecordNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE property_records SET record").
		WithArgs(pgxmock.AnyArg(), "key", pgxmock.AnyArg(), "rec-missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateRecord(context.Background(), "rec-missing", &model.PropertyRecord{}, "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIncrementUploadUsage(t *testing.T) {
	st, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO upload_limits").
		WithArgs(pgxmock.AnyArg(), "org-1", "2025-06", 100, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "org_id", "month", "uploads_used", "uploads_limit", "created_at", "updated_at"}).
			AddRow("ul-1", "org-1", "2025-06", 5, 100, now, now))

	ul, err := st.IncrementUploadUsage(context.Background(), "org-1", "2025-06", 100)
	require.NoError(t, err)

	assert.Equal(t, 5, ul.UploadsUsed)
	assert.Equal(t, 100, ul.UploadsLimit)
	assert.Equal(t, "2025-06", ul.Month)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetUploadUsageNoRow(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, org_id, month, uploads_used, uploads_limit, created_at, updated_at FROM upload_limits").
		WithArgs("org-1", "2025-06").
		WillReturnError(pgx.ErrNoRows)

	ul, err := st.GetUploadUsage(context.Background(), "org-1", "2025-06")
	require.NoError(t, err)
	assert.Nil(t, ul)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS property_records").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
