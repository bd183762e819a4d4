// ABOUTME: Query specification passed through to the remote store
// ABOUTME: Provides a canonical change-detection key and URL parameter encoding
package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortField orders results by one field.
type SortField struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction,omitempty"`
}

// Query is forwarded to the remote store as-is. Nothing here is interpreted locally
// except by the SQLite record store, which understands a small subset.
type Query struct {
	View            string      `json:"view,omitempty"`
	MaxRecords      int         `json:"maxRecords,omitempty"`
	FilterByFormula string      `json:"filterByFormula,omitempty"`
	Sort            []SortField `json:"sort,omitempty"`
}

// Key returns a canonical string for change detection. A nil query and an empty
// query share the same key.
func (q *Query) Key() string {
	if q == nil {
		return "{}"
	}
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Sprintf("%#v", *q)
	}
	return string(data)
}

// Values encodes the query as remote list parameters.
func (q *Query) Values() url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}
	if q.View != "" {
		values.Set("view", q.View)
	}
	if q.MaxRecords > 0 {
		values.Set("maxRecords", strconv.Itoa(q.MaxRecords))
	}
	if q.FilterByFormula != "" {
		values.Set("filterByFormula", q.FilterByFormula)
	}
	for i, s := range q.Sort {
		values.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		if s.Direction != "" {
			values.Set(fmt.Sprintf("sort[%d][direction]", i), string(s.Direction))
		}
	}
	return values
}

// Clone returns a deep copy, or nil for a nil query.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	c := *q
	c.Sort = append([]SortField(nil), q.Sort...)
	return &c
}
