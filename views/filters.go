// ABOUTME: Composable predicates shared by every page filter
// ABOUTME: Month, equality and opportunity-type matchers parameterised by field accessors
package views

import (
	"strconv"
	"strings"
	"time"
)

// SelectAll is the selector value that disables a filter.
const SelectAll = "all"

// Opportunity kinds.
const (
	OpportunityReserved = "reserved"
	OpportunityRecycled = "recycled"
)

// Predicate reports whether an item is kept.
type Predicate[T any] func(T) bool

// All combines predicates with logical and. No predicates keeps everything.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(item T) bool {
		for _, p := range preds {
			if p != nil && !p(item) {
				return false
			}
		}
		return true
	}
}

// Filter returns the items pred keeps, in their original order.
func Filter[T any](items []T, pred Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred == nil || pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func isAll(selector string) bool {
	selector = strings.TrimSpace(selector)
	return selector == "" || strings.EqualFold(selector, SelectAll)
}

// Equals keeps items whose accessor value equals want. "all" and "" keep everything.
func Equals[T any](accessor func(T) string, want string) Predicate[T] {
	if isAll(want) {
		return func(T) bool { return true }
	}
	return func(item T) bool {
		return accessor(item) == want
	}
}

// EqualsFold is Equals ignoring case.
func EqualsFold[T any](accessor func(T) string, want string) Predicate[T] {
	if isAll(want) {
		return func(T) bool { return true }
	}
	want = strings.TrimSpace(want)
	return func(item T) bool {
		return strings.EqualFold(accessor(item), want)
	}
}

// InMonth keeps items whose date falls in the selected month. Selectors:
//
//	all       everything, including items without a date
//	current   the calendar month of now
//	YYYY-MM   that month (a trailing -DD is ignored)
//	0..11     that month of any year
//
// Items without a readable date never match a concrete selector, nor does an
// unreadable selector match anything.
func InMonth[T any](accessor func(T) (time.Time, bool), selector string, now time.Time) Predicate[T] {
	if isAll(selector) {
		return func(T) bool { return true }
	}
	selector = strings.TrimSpace(selector)

	var match func(time.Time) bool
	switch {
	case strings.EqualFold(selector, "current"):
		match = func(t time.Time) bool {
			return t.Year() == now.Year() && t.Month() == now.Month()
		}
	case strings.Contains(selector, "-"):
		key := selector
		if len(key) > 7 {
			key = key[:7]
		}
		want, err := time.Parse("2006-01", key)
		if err != nil {
			return func(T) bool { return false }
		}
		match = func(t time.Time) bool {
			return t.Year() == want.Year() && t.Month() == want.Month()
		}
	default:
		idx, err := strconv.Atoi(selector)
		if err != nil || idx < 0 || idx > 11 {
			return func(T) bool { return false }
		}
		match = func(t time.Time) bool {
			return int(t.Month())-1 == idx
		}
	}

	return func(item T) bool {
		t, ok := accessor(item)
		return ok && match(t)
	}
}

// OpportunityType keeps reserved or recycled items. Any other kind keeps everything.
func OpportunityType[T any](reserved, recycled func(T) bool, kind string) Predicate[T] {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case OpportunityReserved:
		return reserved
	case OpportunityRecycled:
		return recycled
	}
	return func(T) bool { return true }
}
