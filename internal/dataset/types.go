// Package dataset loads the commodity trade table and derives category
// codes. Records are read-only input: every downstream stage consumes an
// immutable snapshot and produces a new structure.
package dataset

import (
	"fmt"
	"strings"
)

// Flow is the trade direction classification of a record.
type Flow string

const (
	FlowExport   Flow = "Export"
	FlowImport   Flow = "Import"
	FlowReExport Flow = "Re-export"
	FlowReImport Flow = "Re-import"
)

// ParseFlow maps a raw flow value to its enum, case-insensitively.
func ParseFlow(value string) (Flow, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "export":
		return FlowExport, nil
	case "import":
		return FlowImport, nil
	case "re-export":
		return FlowReExport, nil
	case "re-import":
		return FlowReImport, nil
	default:
		return "", fmt.Errorf("unknown flow: %q", value)
	}
}

// TradeRecord is one row of the input table. Immutable once loaded.
type TradeRecord struct {
	Year         int
	Country      string
	Category     string
	CategoryCode string
	Flow         Flow
	TradeUSD     float64

	// WeightKG is only meaningful when HasWeight is true; the column is
	// optional in the source data and blank cells stay missing rather
	// than becoming zero.
	WeightKG  float64
	HasWeight bool
}
