package query

import (
	"sort"
	"time"
)

// Record is the view of a ledger row the reducer and filter work on.
type Record interface {
	RecordID() int64
	Created() time.Time
	Field(name string) string
}

// newer reports whether a supersedes b: later created_at wins, ties go to the larger id.
func newer(a, b Record) bool {
	if !a.Created().Equal(b.Created()) {
		return a.Created().After(b.Created())
	}
	return a.RecordID() > b.RecordID()
}

// LatestForKey returns the current record for keyValue, or false when the key has no history.
func LatestForKey[T Record](records []T, keyField, keyValue string) (T, bool) {
	var (
		latest T
		found  bool
	)
	for _, r := range records {
		if r.Field(keyField) != keyValue {
			continue
		}
		if !found || newer(r, latest) {
			latest = r
			found = true
		}
	}
	return latest, found
}

// LatestPerKey reduces the ledger to one current record per distinct key,
// newest first.
func LatestPerKey[T Record](records []T, keyField string) []T {
	latest := make(map[string]T)
	for _, r := range records {
		k := r.Field(keyField)
		cur, ok := latest[k]
		if !ok || newer(r, cur) {
			latest[k] = r
		}
	}

	out := make([]T, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders records by created_at desc, id desc in place.
func SortNewestFirst[T Record](records []T) {
	sort.SliceStable(records, func(i, j int) bool {
		return newer(records[i], records[j])
	})
}

// Keys returns the distinct business keys in ascending order.
func Keys[T Record](records []T, keyField string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, r := range records {
		k := r.Field(keyField)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
