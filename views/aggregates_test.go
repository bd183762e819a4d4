// ABOUTME: Tests for filter predicates and numeric aggregates
// ABOUTME: Covers month selectors, opportunity kinds and percentage clamping
package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type item struct {
	name     string
	kind     string
	date     string
	cost     float64
	reserved bool
	recycled bool
}

func itemDate(i item) (time.Time, bool) { return ParseDate(i.date) }

func names(items []item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.name)
	}
	return out
}

var sampleItems = []item{
	{name: "a", kind: "PPC", date: "2025-04-10", cost: 100, reserved: true},
	{name: "b", kind: "Link Building", date: "2025-03-22", cost: 50, recycled: true},
	{name: "c", kind: "Link Building", date: "2024-04-01"},
	{name: "d", kind: "PPC", date: "unknown", cost: 25},
}

func TestPercentOfTarget(t *testing.T) {
	assert.Equal(t, 0.0, PercentOfTarget(0, 0))
	assert.Equal(t, 100.0, PercentOfTarget(75, 50))
	assert.Equal(t, 50.0, PercentOfTarget(25, 50))
	assert.Equal(t, 0.0, PercentOfTarget(10, -5))
	assert.Equal(t, 0.0, PercentOfTarget(-10, 50))
}

func TestSumAverageCount(t *testing.T) {
	cost := func(i item) float64 { return i.cost }
	assert.Equal(t, 175.0, Sum(sampleItems, cost))
	assert.Equal(t, 43.75, Average(sampleItems, cost))
	assert.Equal(t, 0.0, Average([]item{}, cost))
	assert.Equal(t, 2, Count(sampleItems, Equals(func(i item) string { return i.kind }, "PPC")))
}

func TestEqualsAllMatchesEverything(t *testing.T) {
	kind := func(i item) string { return i.kind }
	assert.Len(t, Filter(sampleItems, Equals(kind, "all")), 4)
	assert.Len(t, Filter(sampleItems, Equals(kind, "")), 4)
	assert.Equal(t, []string{"b", "c"}, names(Filter(sampleItems, Equals(kind, "Link Building"))))
}

func TestEqualsFoldIgnoresCase(t *testing.T) {
	kind := func(i item) string { return i.kind }
	assert.Empty(t, Filter(sampleItems, Equals(kind, "link building")))
	assert.Equal(t, []string{"b", "c"}, names(Filter(sampleItems, EqualsFold(kind, "link building"))))
	assert.Len(t, Filter(sampleItems, EqualsFold(kind, "ALL")), 4)
}

func TestInMonthSelectors(t *testing.T) {
	now := time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		selector string
		want     []string
	}{
		{"all", []string{"a", "b", "c", "d"}},
		{"current", []string{"a"}},
		{"2025-03", []string{"b"}},
		{"2024-04-01", []string{"c"}},
		{"3", []string{"a", "c"}},
		{"12", []string{}},
		{"bogus-month", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got := Filter(sampleItems, InMonth(itemDate, tt.selector, now))
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestOpportunityType(t *testing.T) {
	reserved := func(i item) bool { return i.reserved }
	recycled := func(i item) bool { return i.recycled }

	assert.Equal(t, []string{"a"}, names(Filter(sampleItems, OpportunityType(reserved, recycled, "reserved"))))
	assert.Equal(t, []string{"b"}, names(Filter(sampleItems, OpportunityType(reserved, recycled, "recycled"))))
	assert.Len(t, Filter(sampleItems, OpportunityType(reserved, recycled, "all")), 4)
}

func TestAllCombines(t *testing.T) {
	now := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	pred := All(
		InMonth(itemDate, "3", now),
		Equals(func(i item) string { return i.kind }, "PPC"),
	)
	assert.Equal(t, []string{"a"}, names(Filter(sampleItems, pred)))
	assert.Len(t, Filter(sampleItems, All[item]()), 4)
}

func TestUniqueMonthsAndValues(t *testing.T) {
	assert.Equal(t, []string{"2025-04", "2025-03", "2024-04"}, UniqueMonths(sampleItems, itemDate))
	assert.Equal(t, []string{"Link Building", "PPC"}, UniqueValues(sampleItems, func(i item) string { return i.kind }))
}
