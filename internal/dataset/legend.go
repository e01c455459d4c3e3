package dataset

import (
	"sort"
	"strings"
)

// Legend derives category codes and remembers the first category seen for
// each code, for inspection and debugging. Codes are computed once per
// distinct label and cached, so every record sharing a category string maps
// to exactly one code.
type Legend struct {
	codes     map[string]string
	firstSeen map[string]string
}

// NewLegend creates an empty legend.
func NewLegend() *Legend {
	return &Legend{
		codes:     make(map[string]string),
		firstSeen: make(map[string]string),
	}
}

// Code returns the category code for a label: its maximal leading digit run.
// A label starting with a non-digit yields the empty code, the
// "uncategorized" bucket.
func (l *Legend) Code(category string) string {
	if code, ok := l.codes[category]; ok {
		return code
	}
	code := leadingDigits(category)
	l.codes[category] = code
	if _, ok := l.firstSeen[code]; !ok && code != "" {
		l.firstSeen[code] = category
	}
	return code
}

// LegendEntry pairs a code with the first category observed for it.
type LegendEntry struct {
	Code     string
	Category string
}

// Entries returns the code legend sorted by code.
func (l *Legend) Entries() []LegendEntry {
	entries := make([]LegendEntry, 0, len(l.firstSeen))
	for code, category := range l.firstSeen {
		entries = append(entries, LegendEntry{Code: code, Category: category})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Code < entries[j].Code
	})
	return entries
}

// leadingDigits returns the maximal leading digit sequence of s.
func leadingDigits(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
