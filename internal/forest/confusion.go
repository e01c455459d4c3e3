package forest

import (
	"fmt"

	"tradepulse/internal/labeling"
)

// ConfusionMatrix holds predicted-by-observed counts for the up/down labels.
type ConfusionMatrix struct {
	counts map[labeling.Direction]map[labeling.Direction]int
}

// NewConfusionMatrix creates an empty 2x2 confusion matrix.
func NewConfusionMatrix() *ConfusionMatrix {
	counts := make(map[labeling.Direction]map[labeling.Direction]int, 2)
	for _, predicted := range Directions() {
		counts[predicted] = make(map[labeling.Direction]int, 2)
	}
	return &ConfusionMatrix{counts: counts}
}

// Directions returns the label domain in a fixed order.
func Directions() []labeling.Direction {
	return []labeling.Direction{labeling.DirectionDown, labeling.DirectionUp}
}

// Add records one prediction/observation pair.
func (cm *ConfusionMatrix) Add(predicted, observed labeling.Direction) {
	cm.counts[predicted][observed]++
}

// Count returns the number of test rows with the given pair.
func (cm *ConfusionMatrix) Count(predicted, observed labeling.Direction) int {
	return cm.counts[predicted][observed]
}

// Total returns the number of scored rows.
func (cm *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range cm.counts {
		for _, count := range row {
			total += count
		}
	}
	return total
}

// Accuracy returns the fraction of correct predictions, zero when nothing
// was scored.
func (cm *ConfusionMatrix) Accuracy() float64 {
	total := cm.Total()
	if total == 0 {
		return 0
	}
	correct := 0
	for _, direction := range Directions() {
		correct += cm.Count(direction, direction)
	}
	return float64(correct) / float64(total)
}

// String renders the matrix with predictions as rows and observations as
// columns.
func (cm *ConfusionMatrix) String() string {
	return fmt.Sprintf(
		"predicted\\observed  down  up\n"+
			"down               %5d %4d\n"+
			"up                 %5d %4d",
		cm.Count(labeling.DirectionDown, labeling.DirectionDown),
		cm.Count(labeling.DirectionDown, labeling.DirectionUp),
		cm.Count(labeling.DirectionUp, labeling.DirectionDown),
		cm.Count(labeling.DirectionUp, labeling.DirectionUp),
	)
}
