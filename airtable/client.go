// ABOUTME: HTTP client for the Airtable REST API
// ABOUTME: Lists, creates, updates and removes records in one base with bearer-token auth
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jstnrme77/reportcard-portal/models"
	"golang.org/x/oauth2"
)

const (
	DefaultEndpoint = "https://api.airtable.com/v0"
	defaultTimeout  = 30 * time.Second
)

// Config holds connection settings. Token and BaseID are required.
type Config struct {
	Token    string
	BaseID   string
	Endpoint string
	Timeout  time.Duration

	// HTTPClient supplies the base transport. The token is layered on top of it.
	HTTPClient *http.Client
}

// Client talks to a single base. It makes exactly one request per call.
type Client struct {
	client   *http.Client
	baseID   string
	endpoint string
}

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("airtable token is required")
	}
	if strings.TrimSpace(cfg.BaseID) == "" {
		return nil, errors.New("airtable base id is required")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	var base http.RoundTripper
	if cfg.HTTPClient != nil {
		base = cfg.HTTPClient.Transport
		if cfg.HTTPClient.Timeout != 0 {
			timeout = cfg.HTTPClient.Timeout
		}
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	return &Client{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: source, Base: base},
		},
		baseID:   cfg.BaseID,
		endpoint: endpoint,
	}, nil
}

// BaseID returns the base this client is bound to.
func (c *Client) BaseID() string {
	return c.baseID
}

type listResponse struct {
	Records []models.Record `json:"records"`
	Offset  string          `json:"offset,omitempty"`
}

type deleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type fieldsPayload struct {
	Fields map[string]any `json:"fields"`
}

// List fetches one page of records. The offset cursor is never followed, so
// MaxRecords is the only way to bound the result.
func (c *Client) List(ctx context.Context, table string, q *models.Query) ([]models.Record, error) {
	var resp listResponse
	if err := c.do(ctx, "list", http.MethodGet, table, "", q.Values(), nil, &resp); err != nil {
		log.Printf("Error fetching records from %s: %v", table, err)
		return nil, err
	}
	if resp.Records == nil {
		resp.Records = []models.Record{}
	}
	return resp.Records, nil
}

// Create inserts one record and returns it as stored.
func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, "create", http.MethodPost, table, "", nil, fieldsPayload{Fields: fields}, &rec); err != nil {
		log.Printf("Error creating record in %s: %v", table, err)
		return models.Record{}, err
	}
	return rec, nil
}

// Update applies a partial update. Fields not named keep their values.
func (c *Client) Update(ctx context.Context, table, id string, fields map[string]any) (models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, "update", http.MethodPatch, table, id, nil, fieldsPayload{Fields: fields}, &rec); err != nil {
		log.Printf("Error updating record in %s: %v", table, err)
		return models.Record{}, err
	}
	return rec, nil
}

// Remove deletes a record and reports the store's deleted flag.
func (c *Client) Remove(ctx context.Context, table, id string) (bool, error) {
	var resp deleteResponse
	if err := c.do(ctx, "remove", http.MethodDelete, table, id, nil, nil, &resp); err != nil {
		log.Printf("Error deleting record from %s: %v", table, err)
		return false, err
	}
	return resp.Deleted, nil
}

func (c *Client) recordURL(table, id string, params url.Values) string {
	u := c.endpoint + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, op, method, table, id string, params url.Values, body, out any) error {
	remoteErr := func(status int, err error) *models.RemoteError {
		return &models.RemoteError{Op: op, Collection: table, RecordID: id, StatusCode: status, Err: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return remoteErr(0, fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.recordURL(table, id, params), reader)
	if err != nil {
		return remoteErr(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return remoteErr(0, fmt.Errorf("failed to perform request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return remoteErr(resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := remoteErr(resp.StatusCode, nil)
		e.Type, e.Message = parseError(data)
		if e.Type == "" && e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return e
	}

	if err := json.Unmarshal(data, out); err != nil {
		return remoteErr(resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// parseError reads both error shapes the API returns:
// {"error":{"type":"...","message":"..."}} and {"error":"TYPE"}.
func parseError(data []byte) (string, string) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Error) == 0 {
		return "", strings.TrimSpace(string(data))
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		return detail.Type, detail.Message
	}

	var typ string
	if err := json.Unmarshal(envelope.Error, &typ); err == nil {
		return typ, ""
	}
	return "", string(envelope.Error)
}
