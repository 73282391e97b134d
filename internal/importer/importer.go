// Package importer orchestrates one end-to-end import session: parse, map,
// validate every row, then write records in fixed-size batches with dedup
// resolution and quota bookkeeping.
package importer

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/propdesk/import-cli/internal/dedup"
	"github.com/propdesk/import-cli/internal/mapping"
	"github.com/propdesk/import-cli/internal/model"
	"github.com/propdesk/import-cli/internal/normalize"
	"github.com/propdesk/import-cli/internal/quota"
	"github.com/propdesk/import-cli/internal/store"
	"github.com/propdesk/import-cli/internal/tabular"
)

// State names one step of the import session lifecycle.
type State string

const (
	StateSelectingFile State = "selecting_file"
	StateMappingFields State = "mapping_fields"
	StateValidating    State = "validating"
	StateUploading     State = "uploading"
	StateDone          State = "done"
)

// ErrRequiredFieldUnmapped is the standing mapping condition: the session
// cannot advance until exactly one source column maps to the street field.
var ErrRequiredFieldUnmapped = eris.New("importer: required field property_street is not mapped")

// Config tunes one import session.
type Config struct {
	BatchSize         int
	MaxConcurrentRows int
	BatchTimeout      time.Duration
	WriteRatePerSec   float64
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxConcurrentRows <= 0 {
		c.MaxConcurrentRows = 4
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 30 * time.Second
	}
	return c
}

// Session is one user-initiated import. It is not safe for concurrent use;
// all shared state it touches (the quota counter) is serialized behind the
// ledger.
type Session struct {
	cfg      Config
	st       store.Store
	actor    model.Actor
	ledger   *quota.Ledger
	resolver *dedup.Resolver
	limiter  *rate.Limiter

	state   State
	doc     *tabular.Document
	mapping *mapping.Session
}

// NewSession creates a session in the SelectingFile state.
func NewSession(st store.Store, ledger *quota.Ledger, actor model.Actor, cfg Config) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:      cfg,
		st:       st,
		actor:    actor,
		ledger:   ledger,
		resolver: dedup.NewResolver(st),
		state:    StateSelectingFile,
	}
	if cfg.WriteRatePerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.WriteRatePerSec), max(int(cfg.WriteRatePerSec), 1))
	}
	return s
}

// State returns the current session state.
func (s *Session) State() State { return s.state }

// Document returns the parsed file, or nil before a file is loaded.
func (s *Session) Document() *tabular.Document { return s.doc }

// Mapping returns the editable field mapping, or nil before a file is loaded.
func (s *Session) Mapping() *mapping.Session { return s.mapping }

// LoadFile parses the CSV content and seeds the field mapping from its
// headers. A parse failure keeps the session in SelectingFile.
func (s *Session) LoadFile(r io.Reader) error {
	if s.state != StateSelectingFile {
		return eris.Errorf("importer: cannot load file in state %s", s.state)
	}

	doc, err := tabular.Parse(r)
	if err != nil {
		return err
	}

	s.doc = doc
	s.mapping = mapping.NewSession(mapping.Reconcile(doc.Headers))
	s.state = StateMappingFields

	zap.L().Info("file loaded",
		zap.Int("headers", len(doc.Headers)),
		zap.Int("rows", len(doc.Rows)),
	)
	return nil
}

// ConfirmMapping advances to Validating, guarded by the required-field check.
func (s *Session) ConfirmMapping() error {
	if s.state != StateMappingFields {
		return eris.Errorf("importer: cannot confirm mapping in state %s", s.state)
	}
	if !s.mapping.RequiredSatisfied() {
		return ErrRequiredFieldUnmapped
	}
	s.state = StateValidating
	return nil
}

// Back returns from Validating or Uploading to MappingFields so the user can
// edit the mapping.
func (s *Session) Back() {
	if s.state == StateValidating || s.state == StateUploading {
		s.state = StateMappingFields
	}
}

// Validate runs the normalizer over every row independently. Rows may be
// validated concurrently; the error list is ordered by original row index
// regardless. Only an all-success pass advances the session to Uploading.
func (s *Session) Validate(ctx context.Context) (*model.ImportProgress, error) {
	if s.state != StateValidating {
		return nil, eris.Errorf("importer: cannot validate in state %s", s.state)
	}

	m := s.mapping.Mapping()
	now := time.Now().UTC()
	results := make([][]string, len(s.doc.Rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentRows)
	for i, row := range s.doc.Rows {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			_, issues := normalize.Normalize(row, m, now)
			results[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "importer: validate")
	}

	progress := &model.ImportProgress{Total: len(s.doc.Rows)}
	for i, issues := range results {
		if len(issues) == 0 {
			progress.RecordSuccess()
			continue
		}
		for _, msg := range issues {
			progress.Errors = append(progress.Errors, model.RowError{Row: s.doc.Rows[i].Index, Error: msg})
		}
		progress.Processed++
		progress.Failed++
	}

	if progress.Failed == 0 {
		s.state = StateUploading
	}

	zap.L().Info("validation complete",
		zap.Int("total", progress.Total),
		zap.Int("success", progress.Success),
		zap.Int("failed", progress.Failed),
	)
	return progress, nil
}

// Upload re-derives records (normalization is deterministic, so re-running
// it yields the validation pass's results) and writes them in fixed-size
// batches. A failing batch marks its rows failed and does not abort the
// remaining batches. Cancellation is honored between batches; an in-flight
// batch runs to completion.
func (s *Session) Upload(ctx context.Context) (*model.ImportProgress, error) {
	if s.state != StateUploading {
		return nil, eris.Errorf("importer: cannot upload in state %s", s.state)
	}

	m := s.mapping.Mapping()
	now := time.Now().UTC()
	progress := &model.ImportProgress{Total: len(s.doc.Rows)}

	rows := s.doc.Rows
	for start := 0; start < len(rows); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return progress, eris.Wrap(err, "importer: upload cancelled")
		}

		end := min(start+s.cfg.BatchSize, len(rows))
		s.uploadBatch(ctx, rows[start:end], m, now, progress)
	}

	s.state = StateDone

	zap.L().Info("upload complete",
		zap.Int("total", progress.Total),
		zap.Int("success", progress.Success),
		zap.Int("failed", progress.Failed),
	)
	return progress, nil
}

// uploadBatch resolves each row to a create or an update and applies both
// under the per-batch timeout. Updates go one call at a time; creates are one
// bulk insert whose failure is attributed to every created row in the batch.
func (s *Session) uploadBatch(ctx context.Context, rows []tabular.Row, m map[string]string, now time.Time, progress *model.ImportProgress) {
	bctx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	var creates []store.InsertRecord
	var createRows []int

	for _, row := range rows {
		rec, issues := normalize.Normalize(row, m, now)
		if len(issues) > 0 {
			// Validation is deterministic, so this only happens when a
			// caller skipped the validation pass.
			progress.RecordFailure(row.Index, issues[0])
			continue
		}

		if err := s.waitWrite(bctx); err != nil {
			progress.RecordFailure(row.Index, err.Error())
			continue
		}
		existing, err := s.resolver.FindExisting(bctx, s.actor.OrgID, rec)
		if err != nil {
			progress.RecordFailure(row.Index, err.Error())
			continue
		}

		if existing != nil {
			merged := dedup.Merge(existing, rec, s.actor, now)
			key := dedup.DeriveKey(merged)
			if err := s.st.UpdateRecord(bctx, existing.ID, merged, key.String()); err != nil {
				progress.RecordFailure(row.Index, err.Error())
				continue
			}
			progress.RecordSuccess()
			continue
		}

		rec.ID = uuid.New().String()
		rec.OrgID = s.actor.OrgID
		rec.CreatedBy = s.actor.UserID
		rec.UpdatedBy = s.actor.UserID
		rec.CreatedAt = now
		rec.UpdatedAt = now
		creates = append(creates, store.InsertRecord{Record: rec, DedupKey: dedup.DeriveKey(rec).String()})
		createRows = append(createRows, row.Index)
	}

	if len(creates) == 0 {
		return
	}

	err := s.waitWrite(bctx)
	if err == nil {
		err = s.st.InsertRecords(bctx, creates)
	}
	if err != nil {
		for _, idx := range createRows {
			progress.RecordFailure(idx, err.Error())
		}
		zap.L().Error("batch insert failed",
			zap.Int("batch_size", len(creates)),
			zap.Error(err),
		)
		return
	}

	for range creates {
		progress.RecordSuccess()
	}

	// Counter updates are best-effort bookkeeping: a ledger failure never
	// rolls back the creates that triggered it.
	for range creates {
		if _, err := s.ledger.Increment(ctx, s.actor); err != nil {
			zap.L().Warn("quota increment failed", zap.Error(err))
		}
	}
}

func (s *Session) waitWrite(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
