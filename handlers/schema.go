// ABOUTME: Schema inspection tool handler
// ABOUTME: Reports the tables and inferred field types of the connected base
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/jstnrme77/reportcard-portal/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SchemaHandlers struct {
	inspector *schema.Inspector
	baseID    string
}

func NewSchemaHandlers(inspector *schema.Inspector, baseID string) *SchemaHandlers {
	return &SchemaHandlers{inspector: inspector, baseID: baseID}
}

type InspectSchemaInput struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"Inspect the base again instead of using the cached schema"`
}

type FieldOutput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type TableOutput struct {
	Name         string        `json:"name"`
	PrimaryField string        `json:"primary_field,omitempty"`
	Fields       []FieldOutput `json:"fields"`
}

type InspectSchemaOutput struct {
	BaseID    string        `json:"base_id"`
	FetchedAt string        `json:"fetched_at"`
	Tables    []TableOutput `json:"tables"`
	Valid     bool          `json:"valid"`
	Issues    []string      `json:"issues,omitempty"`
}

func (h *SchemaHandlers) inspect(ctx context.Context, refresh bool) (InspectSchemaOutput, error) {
	var (
		base schema.BaseSchema
		err  error
	)
	if refresh {
		base, err = h.inspector.Refresh(ctx, h.baseID)
	} else {
		base, err = h.inspector.Inspect(ctx, h.baseID)
	}
	if err != nil {
		return InspectSchemaOutput{}, fmt.Errorf("failed to inspect schema: %w", err)
	}

	out := InspectSchemaOutput{
		BaseID:    base.ID,
		FetchedAt: base.FetchedAt.UTC().Format(time.RFC3339),
		Tables:    make([]TableOutput, 0, len(base.Tables)),
	}
	for _, t := range base.Tables {
		table := TableOutput{Name: t.Name, Fields: make([]FieldOutput, 0, len(t.Fields))}
		if f, ok := schema.PrimaryField(t); ok {
			table.PrimaryField = f.Name
		}
		for _, f := range t.Fields {
			table.Fields = append(table.Fields, FieldOutput{Name: f.Name, Type: f.Type})
		}
		out.Tables = append(out.Tables, table)
	}

	v := schema.Validate(base)
	out.Valid = v.Valid
	out.Issues = v.Issues
	return out, nil
}

func (h *SchemaHandlers) InspectSchema(ctx context.Context, request *mcp.CallToolRequest, input InspectSchemaInput) (*mcp.CallToolResult, InspectSchemaOutput, error) {
	out, err := h.inspect(ctx, input.Refresh)
	if err != nil {
		return nil, InspectSchemaOutput{}, err
	}
	return &mcp.CallToolResult{}, out, nil
}
