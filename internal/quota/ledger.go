// Package quota tracks per-organization monthly upload usage. The ledger is
// the single owner of counter increments: all create paths go through it, so
// concurrent batches cannot interleave raw read-modify-write cycles.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/propdesk/import-cli/internal/model"
	"github.com/propdesk/import-cli/internal/resilience"
)

// DefaultMonthlyLimit is used when the organization's plan limit cannot be
// resolved.
const DefaultMonthlyLimit = 10000

// Ledger increments the (org, month) upload counter once per newly created
// record. Updates to existing records never touch it. Exhaustion of the
// limit is reported, not enforced: creation proceeds and the overage is
// logged as a warning.
type Ledger struct {
	mu           sync.Mutex
	store        UsageStore
	defaultLimit int
	now          func() time.Time
}

// UsageStore is the slice of the data store the ledger needs.
type UsageStore interface {
	IncrementUploadUsage(ctx context.Context, orgID, month string, limit int) (*model.UploadLimit, error)
	GetUploadUsage(ctx context.Context, orgID, month string) (*model.UploadLimit, error)
}

// NewLedger creates a Ledger backed by the given store.
func NewLedger(st UsageStore, defaultLimit int) *Ledger {
	if defaultLimit <= 0 {
		defaultLimit = DefaultMonthlyLimit
	}
	return &Ledger{store: st, defaultLimit: defaultLimit, now: time.Now}
}

// Increment records one newly created record against the actor's
// organization for the current calendar month. The counter is created lazily
// with the actor's plan limit (or the default when unresolved). The store
// increment is atomic; transient failures are retried.
func (l *Ledger) Increment(ctx context.Context, actor model.Actor) (*model.UploadLimit, error) {
	month := model.MonthKey(l.now())
	limit := actor.UploadLimit
	if limit <= 0 {
		limit = l.defaultLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ul, err := resilience.DoVal(ctx, retryConfig(), func(ctx context.Context) (*model.UploadLimit, error) {
		return l.store.IncrementUploadUsage(ctx, actor.OrgID, month, limit)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "quota: increment usage for org %s month %s", actor.OrgID, month)
	}

	if ul.UploadsUsed > ul.UploadsLimit {
		zap.L().Warn("monthly upload limit exceeded",
			zap.String("org_id", actor.OrgID),
			zap.String("month", month),
			zap.Int("uploads_used", ul.UploadsUsed),
			zap.Int("uploads_limit", ul.UploadsLimit),
		)
	}

	return ul, nil
}

// Usage reads the current month's counter for the organization, or nil when
// nothing has been imported this month.
func (l *Ledger) Usage(ctx context.Context, orgID string) (*model.UploadLimit, error) {
	month := model.MonthKey(l.now())
	ul, err := l.store.GetUploadUsage(ctx, orgID, month)
	if err != nil {
		return nil, eris.Wrapf(err, "quota: read usage for org %s month %s", orgID, month)
	}
	return ul, nil
}

func retryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("quota", "increment_usage")
	return cfg
}
