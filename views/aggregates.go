// ABOUTME: Numeric aggregates and option lists used by page summaries
// ABOUTME: Missing values count as zero and percentages are clamped
package views

import (
	"math"
	"sort"
	"time"
)

// Sum adds value over items.
func Sum[T any](items []T, value func(T) float64) float64 {
	var total float64
	for _, item := range items {
		total += value(item)
	}
	return total
}

// Average is the mean of value over items, or 0 for no items.
func Average[T any](items []T, value func(T) float64) float64 {
	if len(items) == 0 {
		return 0
	}
	return Sum(items, value) / float64(len(items))
}

// Count returns how many items pred keeps.
func Count[T any](items []T, pred Predicate[T]) int {
	n := 0
	for _, item := range items {
		if pred == nil || pred(item) {
			n++
		}
	}
	return n
}

// PercentOfTarget returns achieved as a percentage of target in [0, 100].
// A target of zero or less yields 0.
func PercentOfTarget(achieved, target float64) float64 {
	if target <= 0 || math.IsNaN(achieved) || math.IsNaN(target) {
		return 0
	}
	pct := achieved / target * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// UniqueMonths lists the YYYY-MM keys present in items, newest first.
func UniqueMonths[T any](items []T, date func(T) (time.Time, bool)) []string {
	seen := make(map[string]bool)
	var months []string
	for _, item := range items {
		t, ok := date(item)
		if !ok {
			continue
		}
		key := MonthKey(t)
		if !seen[key] {
			seen[key] = true
			months = append(months, key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// UniqueValues lists the distinct non-empty values in items, sorted.
func UniqueValues[T any](items []T, value func(T) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, item := range items {
		v := value(item)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
