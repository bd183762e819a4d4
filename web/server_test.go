// ABOUTME: HTTP tests for the portal pages and actions
// ABOUTME: Runs the routed handler against a seeded SQLite store with httptest
package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jstnrme77/reportcard-portal/charm"
	"github.com/jstnrme77/reportcard-portal/config"
	"github.com/jstnrme77/reportcard-portal/db"
	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.April, 20, 9, 0, 0, 0, time.UTC)

// flakyStore fails every list while failing is set. While hold is set, lists
// wait for it to close and report on entered.
type flakyStore struct {
	*db.RecordStore
	failing atomic.Bool
	hold    atomic.Pointer[chan struct{}]
	entered chan struct{}
}

func (f *flakyStore) List(ctx context.Context, table string, q *models.Query) ([]models.Record, error) {
	if h := f.hold.Load(); h != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
		select {
		case <-*h:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failing.Load() {
		return nil, &models.RemoteError{Op: "list", Collection: table, StatusCode: http.StatusServiceUnavailable, Message: "upstream unavailable"}
	}
	return f.RecordStore.List(ctx, table, q)
}

type testEnv struct {
	handler  http.Handler
	store    *flakyStore
	settings *charm.Client
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	ctx := context.Background()
	records := db.NewRecordStore(database)
	require.NoError(t, records.EnsureCollections(ctx, models.PortalTables...))

	clock := func() time.Time { return testNow }
	_, err = sample.Provider{Now: clock}.Seed(ctx, records)
	require.NoError(t, err)

	settings := charm.NewTestClient(t)

	cfg := config.Default()
	cfg.Demo = true

	store := &flakyStore{RecordStore: records, entered: make(chan struct{}, 1)}
	srv, err := NewServer(Deps{Store: store, Settings: settings, Config: cfg, Now: clock})
	require.NoError(t, err)

	return &testEnv{handler: srv.Handler(), store: store, settings: settings}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func postForm(target string, form url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func (e *testEnv) approvalID(t *testing.T, status string) string {
	t.Helper()
	recs, err := e.store.RecordStore.List(context.Background(), models.TableApprovals, nil)
	require.NoError(t, err)
	for _, r := range recs {
		if models.ApprovalFromRecord(r).Status == status {
			return r.ID
		}
	}
	t.Fatalf("no %s approval", status)
	return ""
}

func TestNewServerRequiresStore(t *testing.T) {
	_, err := NewServer(Deps{})
	assert.Error(t, err)
}

func TestDashboard(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Welcome to your Report Card")
	assert.Contains(t, body, "Pending approvals")
	assert.Contains(t, body, "Q2 Growth")
	assert.Contains(t, body, "Demo mode: serving sample data")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/help", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := env.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestNotFound(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/nowhere")
}

func TestApprovalsPage(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/approvals")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "example.com")
	assert.Contains(t, body, "techblog.io")
	assert.Contains(t, body, "Unknown website")
	assert.Contains(t, body, "5 of 5 approvals")

	rec = env.get(t, "/approvals?status=Approved")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "techblog.io")
	assert.NotContains(t, body, "seotips.org")
	assert.Contains(t, body, "1 of 5 approvals")
}

func TestApproveHTMX(t *testing.T) {
	env := setupTestServer(t)
	id := env.approvalID(t, models.StatusPending)

	rec := env.do(t, postForm("/approvals/"+id+"/approve", url.Values{}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "approval-"+id)
	assert.Contains(t, rec.Body.String(), "Approved")
	assert.Contains(t, rec.Body.String(), "Apr 20, 2025")

	got, err := env.store.Get(context.Background(), models.TableApprovals, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Text(models.ApprovalFieldStatus))
	assert.Equal(t, "2025-04-20", got.Text(models.ApprovalFieldDecisionDate))
}

func TestApproveMissingRecord(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, postForm("/approvals/recMissing/approve", url.Values{}, true))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to approve")
}

func TestReject(t *testing.T) {
	env := setupTestServer(t)
	id := env.approvalID(t, models.StatusPending)

	rec := env.do(t, postForm("/approvals/"+id+"/reject", url.Values{}, false))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, postForm("/approvals/"+id+"/reject", url.Values{"comments": {"Off-topic site"}}, false))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/approvals", rec.Header().Get("Location"))

	got, err := env.store.Get(context.Background(), models.TableApprovals, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Text(models.ApprovalFieldStatus))
	assert.Equal(t, "Off-topic site", got.Text(models.ApprovalFieldClientNotes))
}

func TestDeliverablesPage(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/deliverables")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "$2500.00")
	assert.Contains(t, body, "Not set")
	assert.Contains(t, body, "N/A")

	rec = env.get(t, "/deliverables?opportunity=reserved")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "techblog.io")
	assert.NotContains(t, body, "seotips.org/backlinks")
}

func TestLiveLinksPage(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/live-links?month=current")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "3 links")
	assert.Contains(t, body, "/live-links.csv?month=current")
	assert.NotContains(t, body, "marketingpro.com/link-building")
}

func TestLiveLinksCSV(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/live-links.csv?campaign=Q1+Authority")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "URL", rows[0][0])
	for _, row := range rows[1:] {
		assert.Equal(t, "Q1 Authority", row[5])
	}
}

func TestReportsPage(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/reports?service=PPC")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "March 2025")
	assert.Contains(t, body, "12% CTR")
	assert.NotContains(t, body, "Placed 45 links")
	// Upload offers the current month first
	assert.Contains(t, body, `<option value="2025-04-01">April 2025</option>`)
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReportUpload(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	before, err := env.store.List(ctx, models.TableReports, nil)
	require.NoError(t, err)

	req := multipartUpload(t, map[string]string{
		"month":        "2025-04-01",
		"service_type": models.ServicePPC,
		"notes":        "April wrap-up",
	}, "april.pdf")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	after, err := env.store.List(ctx, models.TableReports, nil)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)

	added := models.ReportFromRecord(after[len(after)-1])
	assert.Equal(t, "2025-04-01", added.Month)
	assert.Equal(t, "April wrap-up", added.Notes)
}

func TestReportUploadHTMX(t *testing.T) {
	env := setupTestServer(t)

	req := multipartUpload(t, map[string]string{"month": "2025-03", "service_type": models.ServiceLinkBuilding}, "")
	req.Header.Set("HX-Request", "true")
	rec := env.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "March 2025")
	assert.Equal(t, "report-added", rec.Header().Get("HX-Trigger"))
}

func TestReportUploadRequiresMonth(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, multipartUpload(t, map[string]string{"notes": "no month"}, "x.pdf"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/settings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "John Doe")

	form := url.Values{
		"email_alerts": {"on"},
		"dark_mode":    {"on"},
		"name":         {"Jane Smith"},
		"email":        {"jane@example.com"},
		"role":         {"Client"},
	}
	rec = env.do(t, postForm("/settings", form, false))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Settings saved")
	assert.Contains(t, rec.Body.String(), "Jane Smith")

	saved, err := env.settings.LoadSettings()
	require.NoError(t, err)
	assert.True(t, saved.Notifications.EmailAlerts)
	assert.False(t, saved.Notifications.AppNotifications)
	assert.True(t, saved.Display.DarkMode)
	assert.Equal(t, "jane@example.com", saved.Account.Email)
}

type brokenSettings struct{}

func (brokenSettings) LoadSettings() (models.Settings, error) {
	return models.Settings{}, errors.New("kv closed")
}

func (brokenSettings) SaveSettings(models.Settings) error {
	return errors.New("kv closed")
}

func TestSettingsFailures(t *testing.T) {
	env := setupTestServer(t)
	srv, err := NewServer(Deps{Store: env.store, Settings: brokenSettings{}, Now: func() time.Time { return testNow }})
	require.NoError(t, err)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load settings")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, postForm("/settings", url.Values{"name": {"x"}}, true))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "kv closed")
}

func TestSchemaPage(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/schema")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Base local")
	assert.Contains(t, body, "Approvals")
	assert.Contains(t, body, "Primary field:")
	assert.Contains(t, body, "All expected tables and fields are present")

	rec = env.get(t, "/schema?refresh=1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGraphsPage(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/graphs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "digraph")
}

func TestErrorBannerOnFailedLoad(t *testing.T) {
	env := setupTestServer(t)

	rec := env.get(t, "/approvals")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Some data could not be loaded")

	env.store.failing.Store(true)
	rec = env.get(t, "/approvals")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Some data could not be loaded")
	assert.Contains(t, body, "upstream unavailable")
	assert.NotContains(t, body, "techblog.io")

	env.store.failing.Store(false)
	rec = env.get(t, "/approvals")
	assert.NotContains(t, rec.Body.String(), "Some data could not be loaded")
}

func TestCSVFailsWhenLinksFail(t *testing.T) {
	env := setupTestServer(t)
	env.store.failing.Store(true)

	rec := env.get(t, "/live-links.csv")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCancelledRequestDoesNotAffectConcurrentPage(t *testing.T) {
	env := setupTestServer(t)
	release := make(chan struct{})
	env.store.hold.Store(&release)

	healthy := make(chan *httptest.ResponseRecorder, 1)
	go func() { healthy <- env.get(t, "/approvals") }()
	<-env.store.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env.do(t, httptest.NewRequest(http.MethodGet, "/approvals", nil).WithContext(ctx))

	env.store.hold.Store(nil)
	close(release)

	rec := <-healthy
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "techblog.io")
	assert.NotContains(t, body, "Some data could not be loaded")
	assert.NotContains(t, body, "context canceled")

	rec = env.get(t, "/approvals")
	assert.Contains(t, rec.Body.String(), "techblog.io")
}
