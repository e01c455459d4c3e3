// Package labeling turns the reshaped matrices into a supervised dataset:
// a binary up/down direction per category, feature rows joined from the
// change matrix, and a stratified deterministic train/test split.
package labeling

import (
	"tradepulse/internal/reshape"
)

// Direction is the binary movement label for a category.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Label is the direction assigned to one category code.
type Label struct {
	Code      string
	Direction Direction
}

// LabelDirections computes a label per category from the wide matrix: up
// when the target-year total exceeds the reference-year total, down
// otherwise. Zero change is down by policy. A category missing either year
// produces no label at all; this completeness gate keeps half-observed
// categories out of the modeling set rather than defaulting them.
func LabelDirections(wide *reshape.Matrix, referenceYear, targetYear int) []Label {
	var labels []Label
	for _, code := range wide.Codes() {
		reference := wide.Cell(code, referenceYear)
		target := wide.Cell(code, targetYear)
		if !reference.Valid || !target.Valid {
			continue
		}
		direction := DirectionDown
		if target.Value-reference.Value > 0 {
			direction = DirectionUp
		}
		labels = append(labels, Label{Code: code, Direction: direction})
	}
	return labels
}
