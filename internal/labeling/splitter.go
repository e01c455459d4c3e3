package labeling

import (
	"math"
	"math/rand"
	"sort"

	pipelineerrors "tradepulse/internal/errors"
)

// Split is a disjoint, exhaustive train/test partition of labeled rows.
type Split struct {
	Train []LabeledRow
	Test  []LabeledRow
}

// SplitStratified partitions rows so that the fraction assigned to test is
// applied independently within each direction group, preserving the label
// ratio. The partition is a pure function of the row set, the fraction and
// the seed: rows are ordered by code before shuffling, so the same inputs
// always produce byte-identical partitions.
func SplitStratified(rows []LabeledRow, fraction float64, seed int64) (Split, error) {
	if len(rows) == 0 {
		return Split{}, pipelineerrors.NewEmptyResult("split", "no labeled rows to partition")
	}
	if fraction <= 0 || fraction >= 1 {
		return Split{}, pipelineerrors.NewInvalidConfig(
			"test fraction must be in (0,1), got %v", fraction)
	}

	ordered := append([]LabeledRow(nil), rows...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Code < ordered[j].Code })

	groups := make(map[Direction][]LabeledRow)
	for _, row := range ordered {
		groups[row.Direction] = append(groups[row.Direction], row)
	}

	directions := make([]Direction, 0, len(groups))
	for direction := range groups {
		directions = append(directions, direction)
	}
	sort.Slice(directions, func(i, j int) bool { return directions[i] < directions[j] })

	rng := rand.New(rand.NewSource(seed))
	var split Split
	for _, direction := range directions {
		group := groups[direction]
		rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		testCount := int(math.Round(fraction * float64(len(group))))
		split.Test = append(split.Test, group[:testCount]...)
		split.Train = append(split.Train, group[testCount:]...)
	}

	if len(split.Train) == 0 {
		return Split{}, pipelineerrors.NewEmptyResult("split", "test fraction leaves no training rows")
	}
	if len(split.Test) == 0 {
		return Split{}, pipelineerrors.NewEmptyResult("split", "test fraction leaves no test rows")
	}
	return split, nil
}
