package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/propdesk/import-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It serves local and
// development use with the same contract as the Postgres backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS property_records (
	id         TEXT PRIMARY KEY,
	org_id     TEXT NOT NULL,
	dedup_key  TEXT NOT NULL,
	record     TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_property_records_org_key ON property_records(org_id, dedup_key);

CREATE TABLE IF NOT EXISTS upload_limits (
	id            TEXT PRIMARY KEY,
	org_id        TEXT NOT NULL,
	month         TEXT NOT NULL,
	uploads_used  INTEGER NOT NULL DEFAULT 0,
	uploads_limit INTEGER NOT NULL,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	UNIQUE (org_id, month)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindRecordByKey(ctx context.Context, orgID, dedupKey string) (*model.PropertyRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, record, created_at, updated_at FROM property_records
		 WHERE org_id = ? AND dedup_key = ? ORDER BY created_at ASC LIMIT 1`,
		orgID, dedupKey,
	)

	var id, recordJSON string
	var createdAt, updatedAt time.Time
	err := row.Scan(&id, &recordJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find record")
	}

	var rec model.PropertyRecord
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal record")
	}
	rec.ID = id
	rec.OrgID = orgID
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	return &rec, nil
}

func (s *SQLiteStore) InsertRecords(ctx context.Context, records []InsertRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert batch")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, r := range records {
		if r.Record.ID == "" {
			r.Record.ID = uuid.New().String()
		}
		payload, err := json.Marshal(r.Record)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal record")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO property_records (id, org_id, dedup_key, record, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			r.Record.ID, r.Record.OrgID, r.DedupKey, string(payload), now, now,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert record")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit insert batch")
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, id string, record *model.PropertyRecord, dedupKey string) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE property_records SET record = ?, dedup_key = ?, updated_at = ? WHERE id = ?`,
		string(payload), dedupKey, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update record %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: record not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) IncrementUploadUsage(ctx context.Context, orgID, month string, limit int) (*model.UploadLimit, error) {
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO upload_limits (id, org_id, month, uploads_used, uploads_limit, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?, ?)
		 ON CONFLICT (org_id, month) DO UPDATE SET uploads_used = uploads_used + 1, updated_at = excluded.updated_at
		 RETURNING id, org_id, month, uploads_used, uploads_limit, created_at, updated_at`,
		uuid.New().String(), orgID, month, limit, now, now,
	)

	var ul model.UploadLimit
	err := row.Scan(&ul.ID, &ul.OrgID, &ul.Month, &ul.UploadsUsed, &ul.UploadsLimit, &ul.CreatedAt, &ul.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: increment upload usage")
	}
	return &ul, nil
}

func (s *SQLiteStore) GetUploadUsage(ctx context.Context, orgID, month string) (*model.UploadLimit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, month, uploads_used, uploads_limit, created_at, updated_at FROM upload_limits
		 WHERE org_id = ? AND month = ?`,
		orgID, month,
	)

	var ul model.UploadLimit
	err := row.Scan(&ul.ID, &ul.OrgID, &ul.Month, &ul.UploadsUsed, &ul.UploadsLimit, &ul.CreatedAt, &ul.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get upload usage")
	}
	return &ul, nil
}
