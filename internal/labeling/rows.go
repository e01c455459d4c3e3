package labeling

import (
	pipelineerrors "tradepulse/internal/errors"
	"tradepulse/internal/reshape"
)

// LabeledRow is one category's feature vector and direction. Features keep
// the explicit missing state; resolving it (drop or impute) is the
// classifier's declared responsibility, not an implicit default here.
type LabeledRow struct {
	Code         string
	FeatureYears []int
	Features     []reshape.Cell
	Direction    Direction
}

// FeatureYears selects the change-matrix columns used as features. With
// dropRecent < 0 the cut is derived from the labeling choice: every column
// at or past the target year is excluded, since those columns overlap the
// interval the label is computed from. A non-negative dropRecent instead
// drops that many of the most recent columns, mirroring the historical
// hard-coded behavior.
func FeatureYears(changeYears []int, targetYear, dropRecent int) []int {
	if dropRecent >= 0 {
		keep := len(changeYears) - dropRecent
		if keep < 0 {
			keep = 0
		}
		return append([]int(nil), changeYears[:keep]...)
	}

	var years []int
	for _, year := range changeYears {
		if year < targetYear {
			years = append(years, year)
		}
	}
	return years
}

// BuildRows joins change-matrix rows with their direction labels over the
// selected feature years. Only labeled categories appear; a category with a
// label but no row in the change matrix contributes all-missing features.
func BuildRows(change *reshape.Matrix, labels []Label, featureYears []int) ([]LabeledRow, error) {
	if len(featureYears) == 0 {
		return nil, pipelineerrors.NewEmptyResult("feature join", "no feature columns left after leakage guard")
	}

	rows := make([]LabeledRow, 0, len(labels))
	for _, label := range labels {
		features := make([]reshape.Cell, len(featureYears))
		for i, year := range featureYears {
			features[i] = change.Cell(label.Code, year)
		}
		rows = append(rows, LabeledRow{
			Code:         label.Code,
			FeatureYears: featureYears,
			Features:     features,
			Direction:    label.Direction,
		})
	}

	if len(rows) == 0 {
		return nil, pipelineerrors.NewEmptyResult("feature join", "no labeled categories to join")
	}
	return rows, nil
}
