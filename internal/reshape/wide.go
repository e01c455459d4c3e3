package reshape

import (
	"sort"

	pipelineerrors "tradepulse/internal/errors"
)

// Pivot reshapes an aggregated set into the wide matrix: one row per
// distinct category code, one column per distinct year sorted ascending.
// A (code, year) pair absent from the input becomes an explicit missing
// cell. An empty input fails: there are no rows or columns to construct.
func Pivot(cells []AggregatedCell) (*Matrix, error) {
	if len(cells) == 0 {
		return nil, pipelineerrors.NewEmptyResult("wide reshape", "empty input after filtering")
	}

	yearSet := make(map[int]struct{})
	codeSet := make(map[string]struct{})
	for _, cell := range cells {
		yearSet[cell.Year] = struct{}{}
		codeSet[cell.Code] = struct{}{}
	}

	years := make([]int, 0, len(yearSet))
	for year := range yearSet {
		years = append(years, year)
	}
	// Ascending column order is load-bearing: differencing aligns each
	// year with its predecessor by label.
	sort.Ints(years)

	codes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	matrix := newMatrix(years, codes)
	for _, cell := range cells {
		matrix.set(cell.Code, cell.Year, Some(cell.TotalValue))
	}
	return matrix, nil
}

// Unpivot converts a matrix back to its aggregated set, dropping missing
// cells. Pivot followed by Unpivot reproduces the original set.
func Unpivot(m *Matrix) []AggregatedCell {
	var cells []AggregatedCell
	for _, code := range m.codes {
		row := m.rows[code]
		for i, cell := range row {
			if !cell.Valid {
				continue
			}
			cells = append(cells, AggregatedCell{
				Year:       m.years[i],
				Code:       code,
				TotalValue: cell.Value,
			})
		}
	}
	return cells
}
