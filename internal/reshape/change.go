package reshape

import (
	pipelineerrors "tradepulse/internal/errors"
)

// Changes derives the year-over-year nominal and percent change matrices
// from a wide matrix. Output columns are labeled by the later year of each
// pair; the earliest year has no predecessor and is dropped, so each output
// has exactly one fewer column than the input.
//
// Alignment is by explicit year label, not column position: the base of
// column y is year y-1, and if the dataset skips a year the corresponding
// change cells are missing rather than a difference across a wider gap.
// A missing base, or a zero base for percent change, yields a missing cell,
// never a fatal error and never an infinity.
func Changes(wide *Matrix) (nominal, percent *Matrix, err error) {
	if wide.NumCols() < 2 {
		return nil, nil, pipelineerrors.NewEmptyResult(
			"change", "need at least two year columns, have %d", wide.NumCols())
	}

	years := wide.Years()
	changeYears := make([]int, len(years)-1)
	copy(changeYears, years[1:])

	nominal = newMatrix(changeYears, wide.Codes())
	percent = newMatrix(changeYears, wide.Codes())

	for _, code := range wide.Codes() {
		for _, year := range changeYears {
			current := wide.Cell(code, year)
			base := wide.Cell(code, year-1)

			if !current.Valid || !base.Valid {
				continue
			}
			diff := current.Value - base.Value
			nominal.set(code, year, Some(diff))
			if base.Value != 0 {
				percent.set(code, year, Some(diff/base.Value))
			}
		}
	}
	return nominal, percent, nil
}
