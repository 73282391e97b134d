// Package dedup decides whether an incoming record matches a previously
// stored one, using a normalized (street, city, state, zip) key scoped to the
// organization.
package dedup

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/propdesk/import-cli/internal/model"
	"github.com/propdesk/import-cli/internal/store"
)

// Key is the normalized dedup tuple. Absent components are empty strings so
// comparisons are total.
type Key struct {
	Street string
	City   string
	State  string
	Zip    string
}

// String renders the key in its stored form.
func (k Key) String() string {
	return k.Street + "|" + k.City + "|" + k.State + "|" + k.Zip
}

// DeriveKey builds the dedup key for a record: street lowercased and trimmed
// with internal whitespace collapsed to single spaces, city lowercased and
// trimmed, state uppercased and trimmed, zip trimmed.
func DeriveKey(rec *model.PropertyRecord) Key {
	return Key{
		Street: collapseWhitespace(strings.ToLower(strings.TrimSpace(rec.PropertyStreet))),
		City:   strings.ToLower(strings.TrimSpace(rec.PropertyCity)),
		State:  strings.ToUpper(strings.TrimSpace(rec.PropertyState)),
		Zip:    strings.TrimSpace(rec.PropertyZip),
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Resolver looks up existing records sharing an incoming record's dedup key.
type Resolver struct {
	store store.Store
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// FindExisting returns the stored record matching the incoming record's key
// within the organization, or nil when there is none. The key is a soft
// match, not a database constraint; if more than one record shares it the
// store returns the oldest and the situation is a data-quality condition,
// not an error.
func (r *Resolver) FindExisting(ctx context.Context, orgID string, rec *model.PropertyRecord) (*model.PropertyRecord, error) {
	key := DeriveKey(rec)
	existing, err := r.store.FindRecordByKey(ctx, orgID, key.String())
	if err != nil {
		return nil, eris.Wrap(err, "dedup: find existing")
	}
	if existing != nil {
		zap.L().Debug("dedup match",
			zap.String("org_id", orgID),
			zap.String("record_id", existing.ID),
			zap.String("dedup_key", key.String()),
		)
	}
	return existing, nil
}
