// ABOUTME: Tolerant date parsing and display formatting
// ABOUTME: Accepts the date shapes found in remote records and never fails loudly
package views

import (
	"strings"
	"time"
)

// NotSet is shown wherever a date is missing or unreadable.
const NotSet = "Not set"

// dateLayouts are tried in order. Layouts without a time of day parse to UTC midnight.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006/1/2",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
	"Mon Jan 2 2006",
	"Mon, Jan 2, 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	"2006-01",
	"January 2006",
}

// ParseDate reads s in any supported form. ok is false for empty or unreadable input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Keep the written calendar day; converting an offset timestamp to UTC can move it.
			y, m, d := t.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t as "Jan 2, 2006", or fallback when ok is false.
func FormatDate(t time.Time, ok bool, fallback string) string {
	if !ok {
		return fallback
	}
	return t.Format("Jan 2, 2006")
}

// DisplayDate parses s and formats it, using NotSet for anything unreadable.
func DisplayDate(s string) string {
	t, ok := ParseDate(s)
	return FormatDate(t, ok, NotSet)
}

// MonthKey returns the YYYY-MM key of t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthLabel renders a month value such as "2025-04-01" or "2025-04" as "April 2025".
// Unreadable input is returned unchanged.
func MonthLabel(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("January 2006")
}
