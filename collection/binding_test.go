// ABOUTME: Tests for the collection binding state machine
// ABOUTME: Uses an in-memory fake store to exercise fetch ordering, enablement and mutations
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store. listFn, when set, replaces the default listing.
type fakeStore struct {
	mu      sync.Mutex
	records map[string][]models.Record
	lists   []*models.Query
	nextID  int
	listErr error
	listFn  func(q *models.Query) ([]models.Record, error)
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string][]models.Record)}
}

func (f *fakeStore) seed(table string, fields ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fl := range fields {
		f.nextID++
		f.records[table] = append(f.records[table], models.NewRecord(fmt.Sprintf("rec%d", f.nextID), fl, time.Time{}))
	}
}

func (f *fakeStore) listCalls() []*models.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Query(nil), f.lists...)
}

func (f *fakeStore) List(ctx context.Context, table string, q *models.Query) ([]models.Record, error) {
	f.mu.Lock()
	f.lists = append(f.lists, q.Clone())
	fn, listErr := f.listFn, f.listErr
	out := append([]models.Record(nil), f.records[table]...)
	f.mu.Unlock()

	if fn != nil {
		return fn(q)
	}
	if listErr != nil {
		return nil, listErr
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, table string, fields map[string]any) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fields["fail"] != nil {
		return models.Record{}, &models.RemoteError{Op: "create", Collection: table, StatusCode: 422, Type: "INVALID_REQUEST"}
	}
	f.nextID++
	rec := models.NewRecord(fmt.Sprintf("rec%d", f.nextID), fields, time.Now())
	f.records[table] = append(f.records[table], rec)
	return rec, nil
}

func (f *fakeStore) Update(ctx context.Context, table, id string, fields map[string]any) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rec := range f.records[table] {
		if rec.ID == id {
			merged := make(map[string]any, len(rec.Fields)+len(fields))
			for k, v := range rec.Fields {
				merged[k] = v
			}
			for k, v := range fields {
				merged[k] = v
			}
			f.records[table][i] = models.NewRecord(id, merged, rec.CreatedTime)
			return f.records[table][i], nil
		}
	}
	return models.Record{}, &models.RemoteError{Op: "update", Collection: table, RecordID: id, StatusCode: 404, Type: "NOT_FOUND"}
}

func (f *fakeStore) Remove(ctx context.Context, table, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rec := range f.records[table] {
		if rec.ID == id {
			f.records[table] = append(f.records[table][:i], f.records[table][i+1:]...)
			return true, nil
		}
	}
	return false, &models.RemoteError{Op: "remove", Collection: table, RecordID: id, StatusCode: 404, Type: "NOT_FOUND"}
}

func newApprovals(store Store, opts ...Option) *Binding[models.Approval] {
	return New(store, models.TableApprovals, models.ApprovalFromRecord, opts...)
}

func ids(items []models.Approval) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.ID)
	}
	return out
}

func TestNewBindingStartsLoading(t *testing.T) {
	b := newApprovals(newFakeStore())
	s := b.Snapshot()
	assert.True(t, s.IsLoading)
	assert.Empty(t, s.Data)
	assert.NoError(t, s.Err)
	assert.Equal(t, models.TableApprovals, b.Table())
}

func TestFetchReplacesData(t *testing.T) {
	store := newFakeStore()
	store.seed(models.TableApprovals, map[string]any{"status": "Pending"}, map[string]any{"status": "Approved"})
	b := newApprovals(store)

	b.Fetch(context.Background())

	s := b.Snapshot()
	assert.False(t, s.IsLoading)
	assert.NoError(t, s.Err)
	assert.Equal(t, []string{"rec1", "rec2"}, ids(s.Data))
}

func TestFetchTwiceUsesIdenticalQuery(t *testing.T) {
	store := newFakeStore()
	store.seed(models.TableApprovals, map[string]any{"status": "Pending"})
	q := models.Query{MaxRecords: 50, Sort: []models.SortField{{Field: "status"}}}
	b := newApprovals(store, WithQuery(q))

	b.Fetch(context.Background())
	first := b.Snapshot().Data
	b.Refetch(context.Background())
	second := b.Snapshot().Data

	calls := store.listCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].Key(), calls[1].Key())
	assert.Equal(t, q.Key(), calls[0].Key())
	assert.ElementsMatch(t, first, second)
}

func TestFetchFailureKeepsData(t *testing.T) {
	store := newFakeStore()
	store.seed(models.TableApprovals, map[string]any{"status": "Pending"})
	b := newApprovals(store)
	b.Fetch(context.Background())

	store.mu.Lock()
	store.listErr = &models.RemoteError{Op: "list", Collection: models.TableApprovals, StatusCode: 401}
	store.mu.Unlock()
	b.Fetch(context.Background())

	s := b.Snapshot()
	assert.False(t, s.IsLoading)
	require.Error(t, s.Err)
	assert.True(t, models.IsRemoteError(s.Err))
	assert.Equal(t, []string{"rec1"}, ids(s.Data))

	store.mu.Lock()
	store.listErr = nil
	store.mu.Unlock()
	b.Fetch(context.Background())
	assert.NoError(t, b.Snapshot().Err)
}

func TestCancelledFetchRecordsNothing(t *testing.T) {
	store := newFakeStore()
	store.seed(models.TableApprovals, map[string]any{"status": "Pending"})
	b := newApprovals(store)
	b.Fetch(context.Background())

	store.mu.Lock()
	store.listErr = context.Canceled
	store.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Fetch(ctx)

	s := b.Snapshot()
	assert.False(t, s.IsLoading)
	assert.NoError(t, s.Err)
	assert.Equal(t, []string{"rec1"}, ids(s.Data))
}

func TestCancelledLaterFetchDoesNotPoisonState(t *testing.T) {
	store := newFakeStore()
	started := make(chan struct{})
	release := make(chan struct{})

	store.listFn = func(q *models.Query) ([]models.Record, error) {
		if q.FilterByFormula == "A" {
			close(started)
			<-release
			return []models.Record{models.NewRecord("recA", nil, time.Time{})}, nil
		}
		return nil, context.Canceled
	}

	b := newApprovals(store, WithQuery(models.Query{FilterByFormula: "A"}))

	done := make(chan struct{})
	go func() {
		b.Fetch(context.Background())
		close(done)
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.SetQuery(ctx, models.Query{FilterByFormula: "B"})

	close(release)
	<-done

	s := b.Snapshot()
	assert.NoError(t, s.Err)
	assert.False(t, s.IsLoading)
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	store := newFakeStore()
	started := make(chan struct{})
	release := make(chan struct{})

	store.listFn = func(q *models.Query) ([]models.Record, error) {
		if q.FilterByFormula == "A" {
			close(started)
			<-release
			return []models.Record{models.NewRecord("recA", nil, time.Time{})}, nil
		}
		return []models.Record{models.NewRecord("recB", nil, time.Time{})}, nil
	}

	b := newApprovals(store, WithQuery(models.Query{FilterByFormula: "A"}))

	done := make(chan struct{})
	go func() {
		b.Fetch(context.Background())
		close(done)
	}()
	<-started

	b.SetQuery(context.Background(), models.Query{FilterByFormula: "B"})
	assert.Equal(t, []string{"recB"}, ids(b.Snapshot().Data))

	close(release)
	<-done

	s := b.Snapshot()
	assert.Equal(t, []string{"recB"}, ids(s.Data))
	assert.False(t, s.IsLoading)
}

func TestStaleFetchErrorIsDiscarded(t *testing.T) {
	store := newFakeStore()
	started := make(chan struct{})
	release := make(chan struct{})

	store.listFn = func(q *models.Query) ([]models.Record, error) {
		if q.FilterByFormula == "A" {
			close(started)
			<-release
			return nil, errors.New("late failure")
		}
		return []models.Record{models.NewRecord("recB", nil, time.Time{})}, nil
	}

	b := newApprovals(store, WithQuery(models.Query{FilterByFormula: "A"}))
	done := make(chan struct{})
	go func() {
		b.Fetch(context.Background())
		close(done)
	}()
	<-started
	b.SetQuery(context.Background(), models.Query{FilterByFormula: "B"})
	close(release)
	<-done

	assert.NoError(t, b.Snapshot().Err)
}

func TestSetQuerySkipsUnchangedKey(t *testing.T) {
	store := newFakeStore()
	q := models.Query{MaxRecords: 5}
	b := newApprovals(store, WithQuery(q))
	b.Fetch(context.Background())

	b.SetQuery(context.Background(), models.Query{MaxRecords: 5})
	assert.Len(t, store.listCalls(), 1)

	b.SetQuery(context.Background(), models.Query{MaxRecords: 6})
	assert.Len(t, store.listCalls(), 2)
	assert.Equal(t, 6, b.Query().MaxRecords)
}

func TestDisabledBindingSkipsFetch(t *testing.T) {
	store := newFakeStore()
	store.seed(models.TableApprovals, map[string]any{"status": "Pending"})
	b := newApprovals(store, WithEnabled(false))

	assert.False(t, b.Snapshot().IsLoading)
	b.Fetch(context.Background())

	assert.Empty(t, store.listCalls())
	s := b.Snapshot()
	assert.False(t, s.IsLoading)
	assert.Empty(t, s.Data)

	b.SetEnabled(context.Background(), true)
	assert.True(t, b.Enabled())
	assert.Len(t, store.listCalls(), 1)
	assert.Len(t, b.Snapshot().Data, 1)
}

func TestCreateAppends(t *testing.T) {
	store := newFakeStore()
	store.seed(models.TableApprovals, map[string]any{"status": "Pending"})
	b := newApprovals(store)
	b.Fetch(context.Background())

	created, err := b.Create(context.Background(), map[string]any{"status": "Approved"})
	require.NoError(t, err)

	s := b.Snapshot()
	require.Len(t, s.Data, 2)
	assert.Equal(t, created.ID, s.Data[1].ID)
	assert.Equal(t, models.StatusApproved, s.Data[1].Status)
}

func TestCreateFailureSetsErrorAndReturnsIt(t *testing.T) {
	b := newApprovals(newFakeStore())
	b.Fetch(context.Background())

	_, err := b.Create(context.Background(), map[string]any{"fail": true})
	require.Error(t, err)
	assert.Equal(t, err, b.Snapshot().Err)
	assert.Empty(t, b.Snapshot().Data)
}

func TestUpdateReplacesOnlyMatchingElement(t *testing.T) {
	store := newFakeStore()
	store.seed(models.TableApprovals,
		map[string]any{"status": "Pending", "comments": "first"},
		map[string]any{"status": "Pending", "comments": "second"},
	)
	b := newApprovals(store)
	b.Fetch(context.Background())
	before := b.Snapshot().Data

	updated, err := b.Update(context.Background(), "rec2", map[string]any{"status": "Approved"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, "second", updated.Comments)

	after := b.Snapshot().Data
	require.Len(t, after, 2)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, updated, after[1])
}

func TestUpdateMissingRecordFails(t *testing.T) {
	b := newApprovals(newFakeStore())
	b.Fetch(context.Background())

	_, err := b.Update(context.Background(), "recMissing", map[string]any{"status": "Approved"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Equal(t, err, b.Snapshot().Err)
}

func TestRemoveTwice(t *testing.T) {
	store := newFakeStore()
	store.seed(models.TableApprovals, map[string]any{"status": "Pending"}, map[string]any{"status": "Rejected"})
	b := newApprovals(store)
	b.Fetch(context.Background())

	require.NoError(t, b.Remove(context.Background(), "rec1"))
	s := b.Snapshot()
	assert.Equal(t, []string{"rec2"}, ids(s.Data))

	err := b.Remove(context.Background(), "rec1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Equal(t, []string{"rec2"}, ids(b.Snapshot().Data))
}

func TestBindingsDoNotShareMutations(t *testing.T) {
	store := newFakeStore()
	a := newApprovals(store)
	other := newApprovals(store)
	a.Fetch(context.Background())
	other.Fetch(context.Background())

	_, err := a.Create(context.Background(), map[string]any{"status": "Pending"})
	require.NoError(t, err)

	assert.Len(t, a.Snapshot().Data, 1)
	assert.Empty(t, other.Snapshot().Data)

	other.Refetch(context.Background())
	assert.Len(t, other.Snapshot().Data, 1)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	store := newFakeStore()
	b := newApprovals(store)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Fetch(context.Background())

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	cancel()
	b.Fetch(context.Background())
}
