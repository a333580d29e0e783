// Package search filters the accumulated catalog list by name or number.
package search

import (
	"fmt"
	"strconv"
	"strings"

	"pokedex/internal/domain"
)

// Filter returns the entries of list matching query. It never mutates list.
// A blank query returns list itself.
//
// An entry matches when its name contains the query (case-insensitive), when
// the query equals the zero-padded three digit id ("007"), or when the query
// is an integer equal to the id.
func Filter(list []domain.ListEntry, query string) []domain.ListEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}

	numeric, numErr := strconv.ParseInt(q, 10, 64)

	matched := make([]domain.ListEntry, 0)
	for _, e := range list {
		switch {
		case strings.Contains(strings.ToLower(e.Name), q):
		case PaddedID(e.ID) == q:
		case numErr == nil && numeric == e.ID:
		default:
			continue
		}
		matched = append(matched, e)
	}
	return matched
}

// PaddedID formats id as at least three digits.
func PaddedID(id int64) string {
	return fmt.Sprintf("%03d", id)
}

// FormatNumber returns the "#007" label shown next to an entry.
func FormatNumber(id int64) string {
	return "#" + PaddedID(id)
}
