// ABOUTME: Infers the shape of the remote base by sampling one record per expected table
// ABOUTME: Caches the result, validates it against the tables the portal relies on
package schema

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/patrickmn/go-cache"
)

const (
	cacheTTL     = 10 * time.Minute
	cacheCleanup = 15 * time.Minute
	baseName     = "Airtable Base"
)

// Field types inferred from sample values.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeNull    = "null"
)

// ExpectedTables are queried in order; the records API has no table listing.
var ExpectedTables = []string{
	"Opportunities", "Calls", "Contacts", "Clients", "Clients By Month",
	"Service Types Per Month", "Backlinks", "Guest Posts", "Target URLs",
	"Keywords", "Anchor Text", "Services", "Months", "Backlink Logs",
	"Invoices", "Team", "Reminders",
	models.TableApprovals, models.TableLinks, models.TableReports,
	models.TableCampaigns, models.TableUsers,
}

// RequiredTables must exist for the portal to work.
var RequiredTables = []string{
	models.TableOpportunities, models.TableLinks, models.TableApprovals,
	models.TableReports, models.TableCampaigns, models.TableUsers,
}

// RequiredFields lists fields checked per table when the table has a sample record.
var RequiredFields = map[string][]string{
	models.TableOpportunities: {models.OpportunityFieldName, models.OpportunityFieldStatus, models.OpportunityFieldNumberOfCalls, models.OpportunityFieldDealValue},
	"Calls":                   {"Name", "Status", "Date"},
	"Contacts":                {"Name", "Email", "Phone"},
	models.TableClients:       {models.ClientFieldCompanyName, models.ClientFieldStatus},
	models.TableApprovals:     {models.ApprovalFieldWebsiteID, models.ApprovalFieldStatus},
	models.TableLinks:         {models.LinkFieldURL},
	models.TableReports:       {models.ReportFieldMonth, models.ReportFieldServiceType},
	models.TableCampaigns:     {models.CampaignFieldName},
}

// Lister is the part of the record store the inspector needs.
type Lister interface {
	List(ctx context.Context, table string, q *models.Query) ([]models.Record, error)
}

type FieldSchema struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type TableSchema struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	PrimaryFieldID string        `json:"primary_field_id,omitempty"`
	Fields         []FieldSchema `json:"fields"`
}

type BaseSchema struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Tables    []TableSchema `json:"tables"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Table returns the named table, if present.
func (b BaseSchema) Table(name string) (TableSchema, bool) {
	for _, t := range b.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSchema{}, false
}

// Validation lists what is missing from a base.
type Validation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Inspector queries and caches base schemas.
type Inspector struct {
	store  Lister
	tables []string
	cache  *cache.Cache
	now    func() time.Time
}

// NewInspector creates an inspector that queries ExpectedTables through store.
func NewInspector(store Lister) *Inspector {
	return &Inspector{
		store:  store,
		tables: ExpectedTables,
		cache:  cache.New(cacheTTL, cacheCleanup),
		now:    time.Now,
	}
}

// Inspect returns the cached schema for baseID or inspects it.
func (i *Inspector) Inspect(ctx context.Context, baseID string) (BaseSchema, error) {
	if cached, ok := i.cache.Get(baseID); ok {
		return cached.(BaseSchema), nil
	}
	return i.Refresh(ctx, baseID)
}

// Refresh queries every expected table and replaces the cached schema.
// Tables that fail to load are left out.
func (i *Inspector) Refresh(ctx context.Context, baseID string) (BaseSchema, error) {
	base := BaseSchema{ID: baseID, Name: baseName, Tables: []TableSchema{}, FetchedAt: i.now()}

	for _, name := range i.tables {
		if err := ctx.Err(); err != nil {
			return BaseSchema{}, fmt.Errorf("schema inspection cancelled: %w", err)
		}

		records, err := i.store.List(ctx, name, &models.Query{MaxRecords: 1})
		if err != nil {
			log.Printf("Table %s not found or error accessing it: %v", name, err)
			continue
		}

		table := TableSchema{ID: name, Name: name, Fields: []FieldSchema{}}
		if len(records) > 0 {
			rec := records[0]
			for idx, field := range rec.FieldNames() {
				table.Fields = append(table.Fields, FieldSchema{
					ID:   fmt.Sprintf("field_%d", idx),
					Name: field,
					Type: InferType(rec.Fields[field]),
				})
			}
			if len(table.Fields) > 0 {
				table.PrimaryFieldID = table.Fields[0].ID
			}
		}
		base.Tables = append(base.Tables, table)
	}

	i.cache.Set(baseID, base, cache.DefaultExpiration)
	return base, nil
}

// InferType names the JSON kind of a decoded value.
func InferType(v any) string {
	switch v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case float64, float32, int, int32, int64:
		return TypeNumber
	case []any, []string:
		return TypeArray
	}
	return TypeObject
}

// PrimaryField returns the table's primary field.
func PrimaryField(t TableSchema) (FieldSchema, bool) {
	for _, f := range t.Fields {
		if f.ID == t.PrimaryFieldID {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Validate reports missing required tables, and missing required fields of tables
// that returned a sample record.
func Validate(b BaseSchema) Validation {
	issues := []string{}

	var missing []string
	for _, name := range RequiredTables {
		if _, ok := b.Table(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, "Missing tables: "+strings.Join(missing, ", "))
	}

	for _, t := range b.Tables {
		want, ok := RequiredFields[t.Name]
		if !ok || len(t.Fields) == 0 {
			continue
		}
		var absent []string
		for _, f := range want {
			if !slices.ContainsFunc(t.Fields, func(fs FieldSchema) bool { return fs.Name == f }) {
				absent = append(absent, f)
			}
		}
		if len(absent) > 0 {
			issues = append(issues, fmt.Sprintf("Table '%s' is missing fields: %s", t.Name, strings.Join(absent, ", ")))
		}
	}

	return Validation{Valid: len(issues) == 0, Issues: issues}
}
