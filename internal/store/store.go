// Package store provides the persistence boundary for the import pipeline:
// record lookup by dedup key, batched inserts, single-record updates, and the
// monthly upload counter.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/propdesk/import-cli/internal/model"
)

// Store is the data store client capability consumed by the pipeline. Every
// method is a network call with its own failure mode; no transactionality is
// assumed across calls.
type Store interface {
	// FindRecordByKey returns the oldest record in the organization whose
	// stored dedup key matches, or nil when none exists.
	FindRecordByKey(ctx context.Context, orgID, dedupKey string) (*model.PropertyRecord, error)

	// InsertRecords writes a batch of new records in one call. The whole
	// call either succeeds or fails; callers attribute failure to every
	// record in the batch.
	InsertRecords(ctx context.Context, records []InsertRecord) error

	// UpdateRecord replaces the stored payload of an existing record. The
	// caller supplies the merged record and its recomputed dedup key.
	UpdateRecord(ctx context.Context, id string, record *model.PropertyRecord, dedupKey string) error

	// IncrementUploadUsage atomically bumps the (org, month) counter by one,
	// creating it with the given limit when absent. Safe under concurrent
	// invocation; lost updates are a bug, not an approximation.
	IncrementUploadUsage(ctx context.Context, orgID, month string, limit int) (*model.UploadLimit, error)

	// GetUploadUsage reads the (org, month) counter, or nil when the month
	// has no counter yet.
	GetUploadUsage(ctx context.Context, orgID, month string) (*model.UploadLimit, error)

	Migrate(ctx context.Context) error
	Close() error
}

// InsertRecord pairs a new record with its precomputed dedup key. The key is
// derived by the caller so the store stays free of normalization logic.
type InsertRecord struct {
	Record   *model.PropertyRecord
	DedupKey string
}

// Config selects and configures a store backend.
type Config struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// Open creates the store backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "propdesk.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &cfg.Pool)
	default:
		return nil, eris.Errorf("store: unsupported driver: %s", cfg.Driver)
	}
}
