package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/propdesk/import-cli/internal/model"
)

// pgPool is the subset of pgxpool.Pool used by the store; pgxmock satisfies
// it in tests.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    pgPool
	closeFn func()
}

// preparedStatements lists queries prepared on each new connection; these are
// the hot paths of an import run.
var preparedStatements = map[string]string{
	"find_record": `SELECT id, record, created_at, updated_at FROM property_records WHERE org_id = $1 AND dedup_key = $2 ORDER BY created_at ASC LIMIT 1`,
	"update_record": `UPDATE property_records SET record = $1, dedup_key = $2, updated_at = $3 WHERE id = $4`,
	"increment_usage": `INSERT INTO upload_limits (id, org_id, month, uploads_used, uploads_limit, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5, $5)
		ON CONFLICT (org_id, month) DO UPDATE SET uploads_used = upload_limits.uploads_used + 1, updated_at = $5
		RETURNING id, org_id, month, uploads_used, uploads_limit, created_at, updated_at`,
	"get_usage": `SELECT id, org_id, month, uploads_used, uploads_limit, created_at, updated_at FROM upload_limits WHERE org_id = $1 AND month = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS property_records (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	org_id     TEXT NOT NULL,
	dedup_key  TEXT NOT NULL,
	record     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_property_records_org_key ON property_records(org_id, dedup_key);
CREATE INDEX IF NOT EXISTS idx_property_records_org ON property_records(org_id);

CREATE TABLE IF NOT EXISTS upload_limits (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	org_id        TEXT NOT NULL,
	month         TEXT NOT NULL,
	uploads_used  INTEGER NOT NULL DEFAULT 0,
	uploads_limit INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (org_id, month)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FindRecordByKey(ctx context.Context, orgID, dedupKey string) (*model.PropertyRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, record, created_at, updated_at FROM property_records
		 WHERE org_id = $1 AND dedup_key = $2 ORDER BY created_at ASC LIMIT 1`,
		orgID, dedupKey,
	)

	var id string
	var recordJSON []byte
	var createdAt, updatedAt time.Time
	err := row.Scan(&id, &recordJSON, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find record")
	}

	var rec model.PropertyRecord
	if err := json.Unmarshal(recordJSON, &rec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal record")
	}
	rec.ID = id
	rec.OrgID = orgID
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	return &rec, nil
}

func (s *PostgresStore) InsertRecords(ctx context.Context, records []InsertRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(records))
	now := time.Now().UTC()
	for _, r := range records {
		if r.Record.ID == "" {
			r.Record.ID = uuid.New().String()
		}
		payload, err := json.Marshal(r.Record)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal record")
		}
		rows = append(rows, []any{r.Record.ID, r.Record.OrgID, r.DedupKey, payload, now, now})
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"property_records"},
		[]string{"id", "org_id", "dedup_key", "record", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	return eris.Wrap(err, "postgres: insert records")
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, id string, record *model.PropertyRecord, dedupKey string) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE property_records SET record = $1, dedup_key = $2, updated_at = $3 WHERE id = $4`,
		payload, dedupKey, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update record %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: record not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) IncrementUploadUsage(ctx context.Context, orgID, month string, limit int) (*model.UploadLimit, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO upload_limits (id, org_id, month, uploads_used, uploads_limit, created_at, updated_at)
		 VALUES ($1, $2, $3, 1, $4, $5, $5)
		 ON CONFLICT (org_id, month) DO UPDATE SET uploads_used = upload_limits.uploads_used + 1, updated_at = $5
		 RETURNING id, org_id, month, uploads_used, uploads_limit, created_at, updated_at`,
		uuid.New().String(), orgID, month, limit, time.Now().UTC(),
	)
	return scanUploadLimit(row)
}

func (s *PostgresStore) GetUploadUsage(ctx context.Context, orgID, month string) (*model.UploadLimit, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, org_id, month, uploads_used, uploads_limit, created_at, updated_at FROM upload_limits
		 WHERE org_id = $1 AND month = $2`,
		orgID, month,
	)
	ul, err := scanUploadLimit(row)
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ul, err
}

func scanUploadLimit(row pgx.Row) (*model.UploadLimit, error) {
	var ul model.UploadLimit
	err := row.Scan(&ul.ID, &ul.OrgID, &ul.Month, &ul.UploadsUsed, &ul.UploadsLimit, &ul.CreatedAt, &ul.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan upload limit")
	}
	return &ul, nil
}
