package query

import (
	"strings"
	"time"
)

// AllStatuses is the sentinel that disables the status filter.
const AllStatuses = "All"

// Predicate configures Filter. Zero-valued options are no-ops and all
// supplied options are ANDed.
type Predicate struct {
	Status string
	// SameStatus compares Status with a record's status. Exact match when nil.
	SameStatus func(want, got string) bool

	// Text is matched case-insensitively against any of TextFields.
	Text       string
	TextFields []string

	// From and To bound the date portion of created_at, inclusive.
	// Dates are taken in Location (UTC when nil).
	From     time.Time
	To       time.Time
	Location *time.Location

	KeyField string
	KeyValue string
}

// Filter returns the records matching p in their original order. The input
// slice is never modified.
func Filter[T Record](records []T, p Predicate) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if p.match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (p Predicate) match(r Record) bool {
	if p.Status != "" && p.Status != AllStatuses && !p.sameStatus(r.Field("status")) {
		return false
	}
	if p.KeyValue != "" {
		field := p.KeyField
		if field == "" {
			field = "key"
		}
		if r.Field(field) != p.KeyValue {
			return false
		}
	}
	if p.Text != "" && !p.matchText(r) {
		return false
	}
	if !p.From.IsZero() || !p.To.IsZero() {
		day := dateOf(r.Created(), p.location())
		if !p.From.IsZero() && day.Before(dateOf(p.From, p.location())) {
			return false
		}
		if !p.To.IsZero() && day.After(dateOf(p.To, p.location())) {
			return false
		}
	}
	return true
}

func (p Predicate) sameStatus(got string) bool {
	if p.SameStatus == nil {
		return got == p.Status
	}
	return p.SameStatus(p.Status, got)
}

func (p Predicate) matchText(r Record) bool {
	needle := strings.ToLower(p.Text)
	for _, f := range p.TextFields {
		if strings.Contains(strings.ToLower(r.Field(f)), needle) {
			return true
		}
	}
	return false
}

func (p Predicate) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// dateOf truncates t to midnight of its calendar day in loc, expressed in UTC
// so dates from different zones compare by calendar value.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD query parameter. Empty input yields the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

// StatusCounts tallies records by status for dashboard summaries.
func StatusCounts[T Record](records []T) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Field("status")]++
	}
	return counts
}

// Gallery returns the records of one key that carry a photo, newest first.
func Gallery[T Record](records []T, keyField, keyValue string) []T {
	photos := Filter(records, Predicate{KeyField: keyField, KeyValue: keyValue})
	out := photos[:0]
	for _, r := range photos {
		if r.Field("image_url") != "" {
			out = append(out, r)
		}
	}
	SortNewestFirst(out)
	return out
}
