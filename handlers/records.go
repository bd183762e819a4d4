// ABOUTME: Generic record listing tool handler
// ABOUTME: Passes a query straight to the record store through a collection binding
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/jstnrme77/reportcard-portal/collection"
	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type RecordHandlers struct {
	store collection.Store
}

func NewRecordHandlers(store collection.Store) *RecordHandlers {
	return &RecordHandlers{store: store}
}

type SortInput struct {
	Field     string `json:"field" jsonschema:"Field to sort by"`
	Direction string `json:"direction,omitempty" jsonschema:"asc or desc (default asc)"`
}

type ListRecordsInput struct {
	Table           string      `json:"table" jsonschema:"Table name, e.g. Approvals, Links, Reports, Campaigns, Clients"`
	View            string      `json:"view,omitempty" jsonschema:"Named view to read through"`
	MaxRecords      int         `json:"max_records,omitempty" jsonschema:"Maximum records to return"`
	FilterByFormula string      `json:"filter_by_formula,omitempty" jsonschema:"Formula records must satisfy, e.g. {status}='Pending'"`
	Sort            []SortInput `json:"sort,omitempty" jsonschema:"Sort order"`
}

type RecordOutput struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"created_time,omitempty"`
	Fields      map[string]any `json:"fields"`
}

type ListRecordsOutput struct {
	Table   string         `json:"table"`
	Records []RecordOutput `json:"records"`
	Count   int            `json:"count"`
}

func (h *RecordHandlers) ListRecords(ctx context.Context, req *mcp.CallToolRequest, input ListRecordsInput) (*mcp.CallToolResult, ListRecordsOutput, error) {
	if input.Table == "" {
		return nil, ListRecordsOutput{}, fmt.Errorf("table is required")
	}

	q := models.Query{
		View:            input.View,
		MaxRecords:      input.MaxRecords,
		FilterByFormula: input.FilterByFormula,
	}
	for _, s := range input.Sort {
		dir := models.SortAsc
		if s.Direction == string(models.SortDesc) {
			dir = models.SortDesc
		}
		q.Sort = append(q.Sort, models.SortField{Field: s.Field, Direction: dir})
	}

	b := collection.New(h.store, input.Table, func(r models.Record) models.Record { return r }, collection.WithQuery(q))
	b.Fetch(ctx)
	state := b.Snapshot()
	if state.Err != nil {
		return nil, ListRecordsOutput{}, fmt.Errorf("failed to list %s: %w", input.Table, state.Err)
	}

	records := make([]RecordOutput, 0, len(state.Data))
	for _, r := range state.Data {
		out := RecordOutput{ID: r.ID, Fields: r.Fields}
		if !r.CreatedTime.IsZero() {
			out.CreatedTime = r.CreatedTime.UTC().Format(time.RFC3339)
		}
		if out.Fields == nil {
			out.Fields = map[string]any{}
		}
		records = append(records, out)
	}

	return &mcp.CallToolResult{}, ListRecordsOutput{
		Table:   input.Table,
		Records: records,
		Count:   len(records),
	}, nil
}
