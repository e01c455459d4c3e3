// Package reshape implements the table transformations at the heart of the
// pipeline: flow-filtered aggregation, the category-by-year wide pivot, and
// year-over-year differencing. Missing values are a first-class cell state
// carried explicitly through every structure, never coerced to zero.
package reshape

// Cell is one value of a matrix. A cell is either a defined total or a
// well-defined missing marker; a zero Cell is missing.
type Cell struct {
	Value float64
	Valid bool
}

// Some returns a defined cell.
func Some(value float64) Cell {
	return Cell{Value: value, Valid: true}
}

// Missing is the explicit missing marker.
var Missing = Cell{}

// AggregatedCell is the total trade value, in millions of USD, for one
// (year, category code) group.
type AggregatedCell struct {
	Year       int
	Code       string
	TotalValue float64
}

// Matrix is a 2-D structure with rows indexed by category code and columns
// indexed by year in ascending order. It serves both the wide form (totals
// per year) and the derived change forms; constructors guarantee the column
// ordering that differencing depends on.
type Matrix struct {
	years     []int
	yearIndex map[int]int
	codes     []string
	rows      map[string][]Cell
}

// Years returns the column labels in ascending order.
func (m *Matrix) Years() []int {
	return m.years
}

// Codes returns the row labels in lexical order.
func (m *Matrix) Codes() []string {
	return m.codes
}

// Cell returns the cell for (code, year); absent rows or columns read as
// missing.
func (m *Matrix) Cell(code string, year int) Cell {
	row, ok := m.rows[code]
	if !ok {
		return Missing
	}
	idx, ok := m.yearIndex[year]
	if !ok {
		return Missing
	}
	return row[idx]
}

// Row returns the cells of one row aligned with Years. The returned slice
// is shared; callers must not mutate it.
func (m *Matrix) Row(code string) []Cell {
	return m.rows[code]
}

// NumRows returns the number of category rows.
func (m *Matrix) NumRows() int {
	return len(m.codes)
}

// NumCols returns the number of year columns.
func (m *Matrix) NumCols() int {
	return len(m.years)
}

func newMatrix(years []int, codes []string) *Matrix {
	yearIndex := make(map[int]int, len(years))
	for i, year := range years {
		yearIndex[year] = i
	}
	rows := make(map[string][]Cell, len(codes))
	for _, code := range codes {
		rows[code] = make([]Cell, len(years))
	}
	return &Matrix{
		years:     years,
		yearIndex: yearIndex,
		codes:     codes,
		rows:      rows,
	}
}

func (m *Matrix) set(code string, year int, cell Cell) {
	m.rows[code][m.yearIndex[year]] = cell
}
