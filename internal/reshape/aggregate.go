package reshape

import (
	"sort"

	"tradepulse/internal/dataset"
)

// millionsScale converts raw USD totals to millions for readability of the
// wide matrix and everything derived from it.
const millionsScale = 1e6

// Aggregate groups records matching the flow filter by (year, category code)
// and sums trade values, scaled to millions. Summation is commutative, so
// the result is independent of row order. Groups with no matching records
// are absent from the output, not emitted as zero; callers needing dense
// coverage fill gaps explicitly at the pivot step.
//
// When dropUncategorized is set, records whose category yields the empty
// code are excluded rather than pooled into one unlabeled bucket.
func Aggregate(records []dataset.TradeRecord, flow dataset.Flow, dropUncategorized bool) []AggregatedCell {
	type groupKey struct {
		year int
		code string
	}

	totals := make(map[groupKey]float64)
	for _, record := range records {
		if record.Flow != flow {
			continue
		}
		if dropUncategorized && record.CategoryCode == "" {
			continue
		}
		key := groupKey{year: record.Year, code: record.CategoryCode}
		totals[key] += record.TradeUSD / millionsScale
	}

	cells := make([]AggregatedCell, 0, len(totals))
	for key, total := range totals {
		cells = append(cells, AggregatedCell{
			Year:       key.year,
			Code:       key.code,
			TotalValue: total,
		})
	}

	// Deterministic output order for stable artifacts and tests.
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Code != cells[j].Code {
			return cells[i].Code < cells[j].Code
		}
		return cells[i].Year < cells[j].Year
	})
	return cells
}
