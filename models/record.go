// ABOUTME: Remote record envelope and typed field accessors
// ABOUTME: Decodes the {id, fields, createdTime} shape and applies defaulting rules per field kind
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// createdTimeLayout is the timestamp format the remote store uses for createdTime.
const createdTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is one row of a remote collection. Fields is an open map; any key may be absent.
type Record struct {
	ID          string
	Fields      map[string]any
	CreatedTime time.Time

	order []string
}

// NewRecord builds a record and remembers the field order given by names.
// Fields not listed in names are appended in sorted order by FieldNames.
func NewRecord(id string, fields map[string]any, created time.Time, names ...string) Record {
	if fields == nil {
		fields = make(map[string]any)
	}
	return Record{
		ID:          id,
		Fields:      fields,
		CreatedTime: created,
		order:       names,
	}
}

type recordJSON struct {
	ID          string          `json:"id"`
	Fields      json.RawMessage `json:"fields,omitempty"`
	CreatedTime string          `json:"createdTime,omitempty"`
}

// UnmarshalJSON decodes a record and keeps the order in which fields arrived.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ID = raw.ID
	r.Fields = make(map[string]any)
	r.order = nil
	r.CreatedTime = time.Time{}

	if len(raw.Fields) > 0 && string(raw.Fields) != "null" {
		if err := json.Unmarshal(raw.Fields, &r.Fields); err != nil {
			return fmt.Errorf("failed to decode fields of %s: %w", raw.ID, err)
		}
		order, err := objectKeys(raw.Fields)
		if err != nil {
			return fmt.Errorf("failed to read field order of %s: %w", raw.ID, err)
		}
		r.order = order
	}

	if raw.CreatedTime != "" {
		created, err := time.Parse(time.RFC3339, raw.CreatedTime)
		if err != nil {
			return fmt.Errorf("invalid createdTime %q: %w", raw.CreatedTime, err)
		}
		r.CreatedTime = created
	}

	return nil
}

// MarshalJSON encodes the record in the remote store's wire shape.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := r.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	out := recordJSON{ID: r.ID, Fields: encoded}
	if !r.CreatedTime.IsZero() {
		out.CreatedTime = r.CreatedTime.UTC().Format(createdTimeLayout)
	}
	return json.Marshal(out)
}

// objectKeys returns the top-level keys of a JSON object in document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// RecordID lets raw records be bound to a collection directly.
func (r Record) RecordID() string { return r.ID }

// FieldNames lists present fields, in arrival order first and then alphabetically.
func (r Record) FieldNames() []string {
	seen := make(map[string]bool, len(r.Fields))
	names := make([]string, 0, len(r.Fields))
	for _, name := range r.order {
		if _, ok := r.Fields[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var rest []string
	for name := range r.Fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(names, rest...)
}

// Has reports whether the field is present.
func (r Record) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// Text returns the field as a string. Numbers and booleans are formatted,
// arrays are joined with ", ", anything else is "".
func (r Record) Text(name string) string {
	switch v := r.Fields[name].(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case []any, []string:
		return strings.Join(r.Strings(name), ", ")
	default:
		if n, ok := toNumber(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return ""
}

// Number returns the field as a float. Missing or non-numeric values are 0.
func (r Record) Number(name string) float64 {
	n, _ := toNumber(r.Fields[name])
	return n
}

// Flag returns the field as a boolean. The store represents checkboxes both as
// booleans and as 0/1 numbers.
func (r Record) Flag(name string) bool {
	switch v := r.Fields[name].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1", "checked":
			return true
		}
		return false
	default:
		n, ok := toNumber(v)
		return ok && n != 0
	}
}

// Strings returns an array field as strings. A single string becomes a one-element slice.
func (r Record) Strings(name string) []string {
	switch v := r.Fields[name].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			default:
				if n, ok := toNumber(s); ok {
					out = append(out, strconv.FormatFloat(n, 'f', -1, 64))
				}
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Ref returns the first id of a link field, which may be stored as a plain
// string or as an array of linked record ids.
func (r Record) Ref(name string) string {
	ids := r.Strings(name)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
