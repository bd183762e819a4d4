// ABOUTME: Tests for the Airtable HTTP client against an httptest server
// ABOUTME: Verifies request shapes, auth header, error decoding and not-found matching
package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{Token: "pat123", BaseID: "appBase", Endpoint: srv.URL + "/v0"})
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{BaseID: "app"})
	assert.Error(t, err)

	_, err = New(Config{Token: "pat"})
	assert.Error(t, err)

	c, err := New(Config{Token: "pat", BaseID: "app"})
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, c.endpoint)
	assert.Equal(t, "app", c.BaseID())
}

func TestListSendsQueryAndAuth(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v0/appBase/Live Links", r.URL.Path)
		assert.Equal(t, "Bearer pat123", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "Grid view", q.Get("view"))
		assert.Equal(t, "3", q.Get("maxRecords"))
		assert.Equal(t, "{status}='Pending'", q.Get("filterByFormula"))
		assert.Equal(t, "month", q.Get("sort[0][field]"))
		assert.Equal(t, "desc", q.Get("sort[0][direction]"))

		_, _ = io.WriteString(w, `{"records":[
			{"id":"rec1","createdTime":"2025-04-01T00:00:00.000Z","fields":{"url":"https://a.example"}},
			{"id":"rec2","createdTime":"2025-04-02T00:00:00.000Z","fields":{}}
		],"offset":"itrNext"}`)
	})

	records, err := c.List(context.Background(), "Live Links", &models.Query{
		View:            "Grid view",
		MaxRecords:      3,
		FilterByFormula: "{status}='Pending'",
		Sort:            []models.SortField{{Field: "month", Direction: models.SortDesc}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "offset must not be followed")
	require.Len(t, records, 2)
	assert.Equal(t, "rec1", records[0].ID)
	assert.Equal(t, "https://a.example", records[0].Text("url"))
}

func TestListEmptyReturnsEmptySlice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"records":[]}`)
	})

	records, err := c.List(context.Background(), "Approvals", nil)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestCreatePostsFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v0/appBase/Reports", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-04-01", body["fields"]["month"])

		_, _ = io.WriteString(w, `{"id":"recNew","createdTime":"2025-04-20T00:00:00.000Z","fields":{"month":"2025-04-01"}}`)
	})

	rec, err := c.Create(context.Background(), "Reports", map[string]any{"month": "2025-04-01"})
	require.NoError(t, err)
	assert.Equal(t, "recNew", rec.ID)
	assert.Equal(t, "2025-04-01", rec.Text("month"))
}

func TestUpdatePatchesRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v0/appBase/Approvals/rec1", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"rec1","fields":{"status":"Approved","website_id":"recL"}}`)
	})

	rec, err := c.Update(context.Background(), "Approvals", "rec1", map[string]any{"status": "Approved"})
	require.NoError(t, err)
	assert.Equal(t, "Approved", rec.Text("status"))
	assert.Equal(t, "recL", rec.Text("website_id"))
}

func TestRemoveReturnsDeletedFlag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = io.WriteString(w, `{"id":"rec1","deleted":true}`)
	})

	deleted, err := c.Remove(context.Background(), "Approvals", "rec1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestErrorShapes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType string
		wantMsg  string
		notFound bool
	}{
		{
			name:     "object error",
			status:   http.StatusUnprocessableEntity,
			body:     `{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"Field \"status\" cannot accept the provided value"}}`,
			wantType: "INVALID_VALUE_FOR_COLUMN",
			wantMsg:  "Field \"status\" cannot accept the provided value",
		},
		{
			name:     "string error",
			status:   http.StatusNotFound,
			body:     `{"error":"NOT_FOUND"}`,
			wantType: "NOT_FOUND",
			notFound: true,
		},
		{
			name:    "plain body",
			status:  http.StatusUnauthorized,
			body:    `unauthorized`,
			wantMsg: "unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Update(context.Background(), "Approvals", "recX", map[string]any{"status": "Bogus"})
			require.Error(t, err)

			var re *models.RemoteError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.status, re.StatusCode)
			assert.Equal(t, tt.wantType, re.Type)
			assert.Equal(t, tt.wantMsg, re.Message)
			assert.Equal(t, "recX", re.RecordID)
			assert.Equal(t, tt.notFound, errors.Is(err, models.ErrNotFound))
		})
	}
}

func TestTransportFailureIsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{Token: "pat", BaseID: "app", Endpoint: url})
	require.NoError(t, err)

	_, err = c.List(context.Background(), "Links", nil)
	require.Error(t, err)
	assert.True(t, models.IsRemoteError(err))
}
