// ABOUTME: Tests for the SQLite record store
// ABOUTME: Covers listing with query options, merge updates and not-found errors
package db

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

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	store := NewRecordStore(setupTestDB(t))
	tick := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return store
}

func TestListUnknownCollection(t *testing.T) {
	store := newTestStore(t)

	_, err := store.List(context.Background(), "Nope", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.True(t, errors.Is(err, ErrCollectionNotFound))
}

func TestListRegisteredEmptyCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollections(ctx, models.TableApprovals, models.TableLinks))

	records, err := store.List(ctx, models.TableApprovals, nil)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	names, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{models.TableApprovals, models.TableLinks}, names)
}

func TestCreateAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, models.TableLinks, map[string]any{"url": "https://a.example", "domain_rating": 40})
	require.NoError(t, err)
	assert.Regexp(t, `^rec[0-9A-Z]{26}$`, first.ID)
	assert.Equal(t, []string{"domain_rating", "url"}, first.FieldNames())
	assert.False(t, first.CreatedTime.IsZero())

	_, err = store.Create(ctx, models.TableLinks, map[string]any{"url": "https://b.example", "domain_rating": 70})
	require.NoError(t, err)

	records, err := store.List(ctx, models.TableLinks, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, 40.0, records[0].Number("domain_rating"))
}

func TestListQueryOptions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, f := range []map[string]any{
		{"status": "Pending", "rank": 2},
		{"status": "Approved", "rank": 10},
		{"status": "Pending", "rank": 7},
	} {
		_, err := store.Create(ctx, models.TableApprovals, f)
		require.NoError(t, err)
	}

	records, err := store.List(ctx, models.TableApprovals, &models.Query{
		FilterByFormula: "{status}='Pending'",
		Sort:            []models.SortField{{Field: "rank", Direction: models.SortDesc}},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 7.0, records[0].Number("rank"))
	assert.Equal(t, 2.0, records[1].Number("rank"))

	records, err = store.List(ctx, models.TableApprovals, &models.Query{
		MaxRecords: 2,
		Sort:       []models.SortField{{Field: "rank"}},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2.0, records[0].Number("rank"))
	assert.Equal(t, 7.0, records[1].Number("rank"))
}

func TestListRejectsUnsupportedFormula(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollections(ctx, models.TableApprovals))

	_, err := store.List(ctx, models.TableApprovals, &models.Query{FilterByFormula: "AND({a}, {b})"})
	require.Error(t, err)

	var re *models.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "INVALID_FILTER_BY_FORMULA", re.Type)
	assert.False(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdateMergesFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, models.TableApprovals, map[string]any{"status": "Pending", "comments": "hi"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, models.TableApprovals, rec.ID, map[string]any{
		"status":        "Approved",
		"decision_date": "2025-04-15",
		"comments":      nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "Approved", updated.Text("status"))
	assert.Equal(t, "2025-04-15", updated.Text("decision_date"))
	assert.False(t, updated.Has("comments"))
	assert.Equal(t, []string{"status", "decision_date"}, updated.FieldNames())
	assert.Equal(t, rec.CreatedTime, updated.CreatedTime)
}

func TestUpdateMissingRecord(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Update(context.Background(), models.TableApprovals, "recMissing", map[string]any{"status": "Approved"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.True(t, errors.Is(err, ErrRecordNotFound))

	var re *models.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "update", re.Op)
}

func TestConcurrentUpdatesKeepEveryField(t *testing.T) {
	store := NewRecordStore(setupTestDB(t))
	ctx := context.Background()

	rec, err := store.Create(ctx, models.TableLinks, map[string]any{"url": "https://example.com"})
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Update(ctx, models.TableLinks, rec.ID, map[string]any{fmt.Sprintf("field_%d", i): i})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Get(ctx, models.TableLinks, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.Text("url"))
	for i := 0; i < writers; i++ {
		assert.True(t, got.Has(fmt.Sprintf("field_%d", i)), "field_%d", i)
	}
}

func TestRemoveTwice(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, models.TableReports, map[string]any{"month": "2025-04-01"})
	require.NoError(t, err)

	deleted, err := store.Remove(ctx, models.TableReports, rec.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Remove(ctx, models.TableReports, rec.ID)
	require.Error(t, err)
	assert.False(t, deleted)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
