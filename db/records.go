// ABOUTME: SQLite-backed record store used in demo mode and by tests
// ABOUTME: Mirrors the remote store's list/create/update/remove contract over JSON field maps

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/oklog/ulid/v2"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrCollectionNotFound = errors.New("collection not found")
)

// formulaPattern matches the one formula shape the local store understands: {field}='value'.
var formulaPattern = regexp.MustCompile(`^\{([^{}]+)\}\s*=\s*(?:'([^']*)'|"([^"]*)")$`)

// RecordStore keeps records per collection in SQLite.
type RecordStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecordStore creates a record store over an open database.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db, now: time.Now}
}

// EnsureCollections registers collections so that listing them succeeds while empty.
func (s *RecordStore) EnsureCollections(ctx context.Context, names ...string) error {
	for _, name := range names {
		if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO collections (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("failed to register collection %s: %w", name, err)
		}
	}
	return nil
}

// Collections lists registered collection names.
func (s *RecordStore) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *RecordStore) collectionExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections WHERE name = ?`, name).Scan(&n)
	return n > 0, err
}

func remoteErr(op, collection, id string, err error) *models.RemoteError {
	e := &models.RemoteError{Op: op, Collection: collection, RecordID: id, Err: err}
	switch {
	case errors.Is(err, ErrRecordNotFound):
		e.StatusCode = http.StatusNotFound
		e.Type = "NOT_FOUND"
	case errors.Is(err, ErrCollectionNotFound):
		e.StatusCode = http.StatusNotFound
		e.Type = "TABLE_NOT_FOUND"
	}
	return e
}

// List returns the collection in creation order, then applies the formula, sort and cap.
func (s *RecordStore) List(ctx context.Context, collection string, q *models.Query) ([]models.Record, error) {
	match, err := compileFormula(q)
	if err != nil {
		e := remoteErr("list", collection, "", err)
		e.StatusCode = http.StatusUnprocessableEntity
		e.Type = "INVALID_FILTER_BY_FORMULA"
		return nil, e
	}

	ok, err := s.collectionExists(ctx, collection)
	if err != nil {
		return nil, remoteErr("list", collection, "", err)
	}
	if !ok {
		return nil, remoteErr("list", collection, "", ErrCollectionNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fields, field_order, created_time
		FROM records
		WHERE collection = ?
		ORDER BY created_time, rowid
	`, collection)
	if err != nil {
		return nil, remoteErr("list", collection, "", err)
	}
	defer func() { _ = rows.Close() }()

	records := []models.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, remoteErr("list", collection, "", err)
		}
		if match(rec) {
			records = append(records, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, remoteErr("list", collection, "", err)
	}

	if q != nil {
		sortRecords(records, q.Sort)
		if q.MaxRecords > 0 && len(records) > q.MaxRecords {
			records = records[:q.MaxRecords]
		}
	}
	return records, nil
}

// Get returns one record.
func (s *RecordStore) Get(ctx context.Context, collection, id string) (models.Record, error) {
	rec, err := getRecord(ctx, s.db, collection, id)
	if err == sql.ErrNoRows {
		return models.Record{}, remoteErr("get", collection, id, ErrRecordNotFound)
	}
	if err != nil {
		return models.Record{}, remoteErr("get", collection, id, err)
	}
	return rec, nil
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRecord(ctx context.Context, q rowQueryer, collection, id string) (models.Record, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, fields, field_order, created_time
		FROM records
		WHERE collection = ? AND id = ?
	`, collection, id)
	return scanRecord(row)
}

// Create stores a new record with a rec-prefixed ULID.
func (s *RecordStore) Create(ctx context.Context, collection string, fields map[string]any) (models.Record, error) {
	if err := s.EnsureCollections(ctx, collection); err != nil {
		return models.Record{}, remoteErr("create", collection, "", err)
	}

	clean := make(map[string]any, len(fields))
	for k, v := range fields {
		if v != nil {
			clean[k] = v
		}
	}
	order := sortedKeys(clean)
	now := s.now().UTC().Truncate(time.Millisecond)
	id := "rec" + ulid.Make().String()

	fieldsJSON, orderJSON, err := encodeFields(clean, order)
	if err != nil {
		return models.Record{}, remoteErr("create", collection, "", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, collection, fields, field_order, created_time, updated_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, collection, fieldsJSON, orderJSON, now, now)
	if err != nil {
		return models.Record{}, remoteErr("create", collection, "", err)
	}

	return s.Get(ctx, collection, id)
}

// Update merges fields into an existing record. A nil value clears that field.
// The read and the write share one transaction so concurrent partial updates
// never drop each other's fields.
func (s *RecordStore) Update(ctx context.Context, collection, id string, fields map[string]any) (models.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Record{}, remoteErr("update", collection, id, err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := getRecord(ctx, tx, collection, id)
	if err == sql.ErrNoRows {
		return models.Record{}, remoteErr("update", collection, id, ErrRecordNotFound)
	}
	if err != nil {
		return models.Record{}, remoteErr("update", collection, id, err)
	}

	merged := existing.Fields
	order := existing.FieldNames()
	var added []string
	for k, v := range fields {
		if v == nil {
			delete(merged, k)
			continue
		}
		if !existing.Has(k) {
			added = append(added, k)
		}
		merged[k] = v
	}
	sort.Strings(added)
	order = append(order, added...)

	fieldsJSON, orderJSON, err := encodeFields(merged, order)
	if err != nil {
		return models.Record{}, remoteErr("update", collection, id, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE records SET fields = ?, field_order = ?, updated_time = ?
		WHERE collection = ? AND id = ?
	`, fieldsJSON, orderJSON, s.now().UTC(), collection, id)
	if err != nil {
		return models.Record{}, remoteErr("update", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return models.Record{}, remoteErr("update", collection, id, err)
	}

	return s.Get(ctx, collection, id)
}

// Remove deletes a record. Removing a missing record fails with a not-found error.
func (s *RecordStore) Remove(ctx context.Context, collection, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return false, remoteErr("remove", collection, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, remoteErr("remove", collection, id, err)
	}
	if n == 0 {
		return false, remoteErr("remove", collection, id, ErrRecordNotFound)
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.Record, error) {
	var (
		id, fieldsJSON, orderJSON string
		created                   time.Time
	)
	if err := row.Scan(&id, &fieldsJSON, &orderJSON, &created); err != nil {
		return models.Record{}, err
	}

	fields := map[string]any{}
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return models.Record{}, fmt.Errorf("failed to decode fields of %s: %w", id, err)
	}
	var order []string
	if err := json.Unmarshal([]byte(orderJSON), &order); err != nil {
		return models.Record{}, fmt.Errorf("failed to decode field order of %s: %w", id, err)
	}

	return models.NewRecord(id, fields, created.UTC(), order...), nil
}

func encodeFields(fields map[string]any, order []string) (string, string, error) {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode fields: %w", err)
	}

	kept := make([]string, 0, len(order))
	for _, name := range order {
		if _, ok := fields[name]; ok {
			kept = append(kept, name)
		}
	}
	orderJSON, err := json.Marshal(kept)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode field order: %w", err)
	}
	return string(fieldsJSON), string(orderJSON), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// compileFormula turns the query's formula into a matcher. An empty formula matches everything.
func compileFormula(q *models.Query) (func(models.Record) bool, error) {
	if q == nil || strings.TrimSpace(q.FilterByFormula) == "" {
		return func(models.Record) bool { return true }, nil
	}

	m := formulaPattern.FindStringSubmatch(strings.TrimSpace(q.FilterByFormula))
	if m == nil {
		return nil, fmt.Errorf("unsupported formula %q", q.FilterByFormula)
	}
	field := m[1]
	want := m[2]
	if want == "" {
		want = m[3]
	}
	return func(r models.Record) bool {
		return r.Text(field) == want
	}, nil
}

// sortRecords orders records by each sort field in turn. Numeric values compare
// numerically, everything else by text. Missing values sort first ascending.
func sortRecords(records []models.Record, fields []models.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, f := range fields {
			c := compareField(records[i], records[j], f.Field)
			if c == 0 {
				continue
			}
			if f.Direction == models.SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareField(a, b models.Record, field string) int {
	an, aNum := numeric(a.Fields[field])
	bn, bNum := numeric(b.Fields[field])
	if aNum && bNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	return strings.Compare(a.Text(field), b.Text(field))
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
