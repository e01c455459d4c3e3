package forest

import (
	stderrors "errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelineerrors "tradepulse/internal/errors"
	"tradepulse/internal/labeling"
	"tradepulse/internal/reshape"
)

// separableRows builds rows where the sign of every feature matches the
// direction, with mild seeded noise. Any reasonable forest separates them.
func separableRows(n int, seed int64) []labeling.LabeledRow {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]labeling.LabeledRow, 0, n)
	for i := 0; i < n; i++ {
		direction := labeling.DirectionDown
		sign := -1.0
		if i%2 == 0 {
			direction = labeling.DirectionUp
			sign = 1.0
		}
		rows = append(rows, labeling.LabeledRow{
			Code: fmt.Sprintf("%02d", i),
			Features: []reshape.Cell{
				reshape.Some(sign * (1 + rng.Float64())),
				reshape.Some(sign * (2 + rng.Float64())),
			},
			Direction: direction,
		})
	}
	return rows
}

func TestClassifier_FitAndEvaluate(t *testing.T) {
	train := separableRows(40, 1)
	test := separableRows(20, 2)

	clf := NewClassifier(DefaultOptions(), nil)
	require.NoError(t, clf.Fit(train))

	eval, err := clf.Evaluate(test)
	require.NoError(t, err)

	assert.Equal(t, 20, eval.Confusion.Total())
	assert.Equal(t, 1.0, eval.Accuracy, "clearly separable data must score perfectly")
	assert.Len(t, eval.Predictions, 20)
	assert.Zero(t, eval.Skipped)
}

func TestClassifier_Deterministic(t *testing.T) {
	train := separableRows(30, 3)
	test := separableRows(10, 4)

	run := func() []Prediction {
		clf := NewClassifier(DefaultOptions(), nil)
		require.NoError(t, clf.Fit(train))
		eval, err := clf.Evaluate(test)
		require.NoError(t, err)
		return eval.Predictions
	}

	assert.Equal(t, run(), run(), "fixed seed must yield identical predictions")
}

func TestClassifier_TrainingOrderInsensitive(t *testing.T) {
	train := separableRows(30, 5)
	shuffled := make([]labeling.LabeledRow, len(train))
	copy(shuffled, train)
	rand.New(rand.NewSource(9)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	test := separableRows(10, 6)

	evaluate := func(rows []labeling.LabeledRow) float64 {
		clf := NewClassifier(DefaultOptions(), nil)
		require.NoError(t, clf.Fit(rows))
		eval, err := clf.Evaluate(test)
		require.NoError(t, err)
		return eval.Accuracy
	}

	assert.Equal(t, evaluate(train), evaluate(shuffled))
}

func TestClassifier_EmptyTrainingSet(t *testing.T) {
	clf := NewClassifier(DefaultOptions(), nil)
	err := clf.Fit(nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, pipelineerrors.ErrEmptyResult))
}

func TestClassifier_DegenerateLabels(t *testing.T) {
	rows := separableRows(10, 7)
	for i := range rows {
		rows[i].Direction = labeling.DirectionUp
	}

	clf := NewClassifier(DefaultOptions(), nil)
	err := clf.Fit(rows)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, pipelineerrors.ErrDegenerateLabels))
}

func TestClassifier_DropPolicy(t *testing.T) {
	train := separableRows(20, 8)
	train[0].Features[1] = reshape.Missing

	clf := NewClassifier(DefaultOptions(), nil)
	require.NoError(t, clf.Fit(train))

	// A test row with a missing feature is skipped, not fatal.
	test := separableRows(10, 9)
	test[3].Features[0] = reshape.Missing

	eval, err := clf.Evaluate(test)
	require.NoError(t, err)
	assert.Equal(t, 1, eval.Skipped)
	assert.Equal(t, 9, eval.Confusion.Total())
}

func TestClassifier_AllRowsDropped(t *testing.T) {
	train := separableRows(4, 10)
	for i := range train {
		train[i].Features[0] = reshape.Missing
	}

	clf := NewClassifier(DefaultOptions(), nil)
	err := clf.Fit(train)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, pipelineerrors.ErrEmptyResult))
}

func TestClassifier_ImputePolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.MissingPolicy = MissingImpute

	train := separableRows(20, 11)
	train[0].Features[0] = reshape.Missing
	train[5].Features[1] = reshape.Missing

	clf := NewClassifier(opts, nil)
	require.NoError(t, clf.Fit(train))

	// Missing features impute instead of skipping the row.
	test := separableRows(10, 12)
	test[2].Features[0] = reshape.Missing

	eval, err := clf.Evaluate(test)
	require.NoError(t, err)
	assert.Zero(t, eval.Skipped)
	assert.Equal(t, 10, eval.Confusion.Total())
}

func TestClassifier_EvaluateEmptyTestSet(t *testing.T) {
	clf := NewClassifier(DefaultOptions(), nil)
	require.NoError(t, clf.Fit(separableRows(20, 13)))

	_, err := clf.Evaluate(nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, pipelineerrors.ErrEmptyResult))
}

func TestClassifier_PredictBeforeFit(t *testing.T) {
	clf := NewClassifier(DefaultOptions(), nil)
	_, err := clf.Predict(separableRows(2, 14)[0])
	require.Error(t, err)
}

func TestConfusionMatrix(t *testing.T) {
	cm := NewConfusionMatrix()
	cm.Add(labeling.DirectionUp, labeling.DirectionUp)
	cm.Add(labeling.DirectionUp, labeling.DirectionUp)
	cm.Add(labeling.DirectionUp, labeling.DirectionDown)
	cm.Add(labeling.DirectionDown, labeling.DirectionDown)

	assert.Equal(t, 4, cm.Total())
	assert.Equal(t, 2, cm.Count(labeling.DirectionUp, labeling.DirectionUp))
	assert.Equal(t, 1, cm.Count(labeling.DirectionUp, labeling.DirectionDown))
	assert.Equal(t, 1, cm.Count(labeling.DirectionDown, labeling.DirectionDown))
	assert.Equal(t, 0, cm.Count(labeling.DirectionDown, labeling.DirectionUp))
	assert.InDelta(t, 0.75, cm.Accuracy(), 1e-12)
}
