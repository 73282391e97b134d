package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/import-cli/internal/model"
	"github.com/propdesk/import-cli/internal/quota"
	"github.com/propdesk/import-cli/internal/store"
)

// memStore is an in-memory store.Store with per-call insert failure
// injection for batch isolation tests.
type memStore struct {
	mu             sync.Mutex
	byKey          map[string]*model.PropertyRecord
	byID           map[string]*model.PropertyRecord
	usage          map[string]*model.UploadLimit
	insertCalls    int
	updateCalls    int
	failInsertCall int // 1-based insert call to fail; 0 disables
}

func newMemStore() *memStore {
	return &memStore{
		byKey: map[string]*model.PropertyRecord{},
		byID:  map[string]*model.PropertyRecord{},
		usage: map[string]*model.UploadLimit{},
	}
}

func (s *memStore) FindRecordByKey(_ context.Context, _, dedupKey string) (*model.PropertyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byKey[dedupKey]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) InsertRecords(_ context.Context, records []store.InsertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	if s.failInsertCall > 0 && s.insertCalls == s.failInsertCall {
		return eris.New("insert failed")
	}
	for _, r := range records {
		copied := *r.Record
		s.byKey[r.DedupKey] = &copied
		s.byID[copied.ID] = &copied
	}
	return nil
}

func (s *memStore) UpdateRecord(_ context.Context, id string, record *model.PropertyRecord, dedupKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return eris.Errorf("record not found: %s", id)
	}
	s.updateCalls++
	copied := *record
	copied.ID = id
	s.byID[id] = &copied
	s.byKey[dedupKey] = &copied
	return nil
}

func (s *memStore) IncrementUploadUsage(_ context.Context, orgID, month string, limit int) (*model.UploadLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := orgID + "/" + month
	ul, ok := s.usage[key]
	if !ok {
		ul = &model.UploadLimit{ID: key, OrgID: orgID, Month: month, UploadsLimit: limit}
		s.usage[key] = ul
	}
	ul.UploadsUsed++
	copied := *ul
	return &copied, nil
}

func (s *memStore) GetUploadUsage(_ context.Context, orgID, month string) (*model.UploadLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ul, ok := s.usage[orgID+"/"+month]; ok {
		copied := *ul
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }

func (s *memStore) totalUsage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, ul := range s.usage {
		total += ul.UploadsUsed
	}
	return total
}

func testActor() model.Actor {
	return model.Actor{UserID: "user-1", OrgID: "org-1", UploadLimit: 1000}
}

func newTestSession(st *memStore, cfg Config) *Session {
	return NewSession(st, quota.NewLedger(st, 500), testActor(), cfg)
}

// csvWithRows builds a CSV with n distinct addresses.
func csvWithRows(n int) string {
	var b strings.Builder
	b.WriteString("Address,City,State,Zip,Owner Name\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d Main St,Austin,TX,78701,Jane Public\n", 100+i)
	}
	return b.String()
}

func runToUploading(t *testing.T, s *Session, csv string) {
	t.Helper()
	require.NoError(t, s.LoadFile(strings.NewReader(csv)))
	require.NoError(t, s.ConfirmMapping())
	progress, err := s.Validate(context.Background())
	require.NoError(t, err)
	require.Zero(t, progress.Failed)
	require.Equal(t, StateUploading, s.State())
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	s := newTestSession(st, Config{})
	assert.Equal(t, StateSelectingFile, s.State())

	runToUploading(t, s, csvWithRows(3))

	progress, err := s.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, s.State())

	assert.Equal(t, 3, progress.Total)
	assert.Equal(t, 3, progress.Success)
	assert.Zero(t, progress.Failed)
	assert.Len(t, st.byID, 3)

	// One quota increment per created record.
	assert.Equal(t, 3, st.totalUsage())

	// Actor and name split landed on the stored records.
	for _, rec := range st.byID {
		assert.Equal(t, "org-1", rec.OrgID)
		assert.Equal(t, "user-1", rec.CreatedBy)
		assert.Equal(t, "Jane", rec.FirstName)
		assert.Equal(t, "Public", rec.LastName)
		assert.NotEmpty(t, rec.ID)
	}
}

// Re-importing the same file updates the existing records instead of
// creating duplicates, and the quota counter does not move.
func TestUploadDeduplicates(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	csv := csvWithRows(5)

	s1 := newTestSession(st, Config{})
	runToUploading(t, s1, csv)
	_, err := s1.Upload(context.Background())
	require.NoError(t, err)
	require.Len(t, st.byID, 5)
	require.Equal(t, 5, st.totalUsage())

	s2 := newTestSession(st, Config{})
	runToUploading(t, s2, csv)
	progress, err := s2.Upload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, progress.Success)
	assert.Len(t, st.byID, 5, "no new records created")
	assert.Equal(t, 5, st.updateCalls)
	assert.Equal(t, 5, st.totalUsage(), "updates never touch the quota counter")
}

// Address normalization differences still hit the same record.
func TestUploadDeduplicatesAcrossFormatting(t *testing.T) {
	t.Parallel()

	st := newMemStore()

	s1 := newTestSession(st, Config{})
	runToUploading(t, s1, "Address,City,State,Zip\n123 Main St,Austin,TX,78701\n")
	_, err := s1.Upload(context.Background())
	require.NoError(t, err)

	s2 := newTestSession(st, Config{})
	runToUploading(t, s2, "Address,City,State,Zip\n  123   MAIN ST ,austin,tx,78701\n")
	_, err = s2.Upload(context.Background())
	require.NoError(t, err)

	assert.Len(t, st.byID, 1)
	assert.Equal(t, 1, st.updateCalls)
	assert.Equal(t, 1, st.totalUsage())
}

// A failing batch marks only its own rows failed; later batches still run.
func TestUploadBatchFailureIsolation(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	st.failInsertCall = 2

	s := newTestSession(st, Config{BatchSize: 50})
	runToUploading(t, s, csvWithRows(120))

	progress, err := s.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, s.State())

	assert.Equal(t, 120, progress.Total)
	assert.Equal(t, 100, progress.Success)
	assert.Equal(t, 20, progress.Failed)
	assert.Len(t, progress.Errors, 50, "every row of the failed batch is reported")

	// Rows 51-100 are the second batch.
	for _, re := range progress.Errors {
		assert.GreaterOrEqual(t, re.Row, 51)
		assert.LessOrEqual(t, re.Row, 100)
	}

	assert.Equal(t, 3, st.insertCalls, "third batch still attempted")
	assert.Len(t, st.byID, 100)
	assert.Equal(t, 100, st.totalUsage(), "failed rows never increment the counter")
}

func TestValidateReportsAllErrors(t *testing.T) {
	t.Parallel()

	csv := strings.Join([]string{
		"Address,Email,Temperature",
		"123 Main St,jane@example.com,hot",
		",bad-email,hot",
		"125 Main St,ok@example.com,scorching",
	}, "\n")

	s := newTestSession(newMemStore(), Config{})
	require.NoError(t, s.LoadFile(strings.NewReader(csv)))
	require.NoError(t, s.ConfirmMapping())

	progress, err := s.Validate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, progress.Total)
	assert.Equal(t, 1, progress.Success)
	assert.Equal(t, 2, progress.Failed)

	// Row 2 carries two errors; row 3 one.
	require.Len(t, progress.Errors, 3)
	assert.Equal(t, 2, progress.Errors[0].Row)
	assert.Equal(t, "Property address/street is required", progress.Errors[0].Error)
	assert.Equal(t, 2, progress.Errors[1].Row)
	assert.Equal(t, "Invalid email format", progress.Errors[1].Error)
	assert.Equal(t, 3, progress.Errors[2].Row)
	assert.Equal(t, "Invalid lead temperature value", progress.Errors[2].Error)

	// Validation failures keep the session out of Uploading.
	assert.Equal(t, StateValidating, s.State())
	_, err = s.Upload(context.Background())
	require.Error(t, err)
}

func TestConfirmMappingRequiresStreet(t *testing.T) {
	t.Parallel()

	s := newTestSession(newMemStore(), Config{})
	require.NoError(t, s.LoadFile(strings.NewReader("Foo,Bar\n1,2\n")))

	err := s.ConfirmMapping()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrRequiredFieldUnmapped))

	// Fixing the mapping by hand unblocks the session.
	s.Mapping().Set("Foo", "property_street")
	require.NoError(t, s.ConfirmMapping())
	assert.Equal(t, StateValidating, s.State())
}

func TestStateGuards(t *testing.T) {
	t.Parallel()

	s := newTestSession(newMemStore(), Config{})

	_, err := s.Validate(context.Background())
	require.Error(t, err)
	_, err = s.Upload(context.Background())
	require.Error(t, err)
	require.Error(t, s.ConfirmMapping())

	require.NoError(t, s.LoadFile(strings.NewReader(csvWithRows(1))))
	require.Error(t, s.LoadFile(strings.NewReader(csvWithRows(1))), "file already loaded")
}

func TestBackReturnsToMapping(t *testing.T) {
	t.Parallel()

	s := newTestSession(newMemStore(), Config{})
	runToUploading(t, s, csvWithRows(1))

	s.Back()
	assert.Equal(t, StateMappingFields, s.State())
	require.NoError(t, s.ConfirmMapping())
}

func TestLoadFileParseFailureKeepsState(t *testing.T) {
	t.Parallel()

	s := newTestSession(newMemStore(), Config{})
	err := s.LoadFile(strings.NewReader("Address\n\"unterminated\n"))
	require.Error(t, err)
	assert.Equal(t, StateSelectingFile, s.State())
}

func TestUploadCancelledBetweenBatches(t *testing.T) {
	t.Parallel()

	s := newTestSession(newMemStore(), Config{BatchSize: 10})
	runToUploading(t, s, csvWithRows(20))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	progress, err := s.Upload(ctx)
	require.Error(t, err)
	assert.Zero(t, progress.Processed)
}
