// ABOUTME: Tests for demo data seeding
// ABOUTME: Seeds a temporary SQLite record store and checks joins resolve
package sample

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jstnrme77/reportcard-portal/db"
	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *db.RecordStore {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "demo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	store := db.NewRecordStore(database)
	require.NoError(t, store.EnsureCollections(context.Background(), models.PortalTables...))
	return store
}

func TestSeedFillsEmptyCollections(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	now := time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)

	result, err := Provider{Now: func() time.Time { return now }}.Seed(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, 3, result[models.TableCampaigns])
	assert.Equal(t, 6, result[models.TableLinks])
	assert.Equal(t, 5, result[models.TableApprovals])
	assert.Equal(t, 5, result[models.TableReports])
	assert.Equal(t, 1, result[models.TableClients])

	linkRecs, err := store.List(ctx, models.TableLinks, nil)
	require.NoError(t, err)
	approvalRecs, err := store.List(ctx, models.TableApprovals, nil)
	require.NoError(t, err)

	var links []models.Link
	for _, r := range linkRecs {
		links = append(links, models.LinkFromRecord(r))
	}
	var approvals []models.Approval
	for _, r := range approvalRecs {
		approvals = append(approvals, models.ApprovalFromRecord(r))
	}

	rows := views.ApprovalRows(approvals, links)
	require.Len(t, rows, 5)
	assert.Equal(t, "example.com", rows[0].WebsiteName)
	assert.Equal(t, views.UnknownWebsite, rows[4].WebsiteName)

	current := views.FilterDeliverables(views.DeliverableRows(links), views.DeliverableFilter{Month: "current"}, now)
	assert.Len(t, current, 3)
}

func TestSeedSkipsPopulatedCollections(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, models.TableReports, map[string]any{"month": "2025-01-01"})
	require.NoError(t, err)

	result, err := Provider{}.Seed(ctx, store)
	require.NoError(t, err)
	assert.Zero(t, result[models.TableReports])

	again, err := Provider{}.Seed(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, again)
}
