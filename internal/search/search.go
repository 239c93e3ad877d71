// Package search implements the client-side list filter shared by the
// content, template and history views: a case-insensitive substring match
// over a fixed set of fields per item.
package search

import (
	"encoding/json"
	"strings"
	"time"
)

// Fields returns the searchable text of an item
type Fields[T any] func(item T) []string

// Filter returns the items where any field contains query, ignoring case.
// An empty or blank query returns items unchanged.
func Filter[T any](items []T, query string, fields Fields[T]) []T {
	q := Normalize(query)
	if q == "" {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if Match(fields(item), q) {
			out = append(out, item)
		}
	}
	return out
}

// Match reports whether any field contains the already normalized query
func Match(fields []string, normalizedQuery string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), normalizedQuery) {
			return true
		}
	}
	return false
}

// Normalize lower-cases and trims a query
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Date renders a date the way list views display it, empty for zero dates
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

// Serialize renders arbitrary metadata as JSON text so it can be searched
func Serialize(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
