// Package forest trains a bag-of-trees ensemble on labeled category rows
// and scores held-out rows into a confusion matrix. The ensemble is
// order-insensitive over training rows, but every tree's bootstrap and
// feature sampling derives from a fixed seed, so identical inputs always
// produce identical models.
package forest

import (
	"log/slog"
	"math/rand"

	pipelineerrors "tradepulse/internal/errors"
	"tradepulse/internal/labeling"
)

// MissingPolicy states how missing feature values are resolved before
// training and scoring. The choice is explicit configuration; there is no
// silent default coercion.
type MissingPolicy string

const (
	// MissingDrop excludes rows carrying any missing feature.
	MissingDrop MissingPolicy = "drop"
	// MissingImpute replaces missing features with the training mean of
	// the column.
	MissingImpute MissingPolicy = "impute"
)

// Options configures the ensemble.
type Options struct {
	NumTrees      int
	MaxDepth      int
	MinLeafSize   int
	Seed          int64
	MissingPolicy MissingPolicy
}

// DefaultOptions returns a reasonable illustrative configuration.
func DefaultOptions() Options {
	return Options{
		NumTrees:      100,
		MaxDepth:      10,
		MinLeafSize:   1,
		Seed:          42,
		MissingPolicy: MissingDrop,
	}
}

// Classifier is a random-forest direction classifier.
type Classifier struct {
	opts        Options
	logger      *slog.Logger
	trees       []*treeNode
	numFeatures int
	columnMeans []float64
}

// NewClassifier creates an untrained classifier.
func NewClassifier(opts Options, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{opts: opts, logger: logger}
}

// Prediction pairs a test row with its predicted direction.
type Prediction struct {
	Code      string
	Predicted labeling.Direction
	Observed  labeling.Direction
}

// Evaluation is the scoring output over a test set.
type Evaluation struct {
	Predictions []Prediction
	Confusion   *ConfusionMatrix
	Accuracy    float64

	// Skipped counts test rows that could not be scored under the drop
	// policy because of missing features.
	Skipped int
}

// Fit trains the ensemble. It reports, rather than crashes on, an empty
// training set and a training set with a single class, since neither
// leaves any contrast to learn from.
func (c *Classifier) Fit(train []labeling.LabeledRow) error {
	if len(train) == 0 {
		return pipelineerrors.NewEmptyResult("classifier", "training set is empty")
	}

	samples, dropped := c.resolveTraining(train)
	if len(samples) == 0 {
		return pipelineerrors.NewEmptyResult(
			"classifier", "all %d training rows dropped for missing features", len(train))
	}
	if dropped > 0 {
		c.logger.Warn("dropped training rows with missing features",
			slog.Int("dropped", dropped),
			slog.Int("kept", len(samples)))
	}

	if isPure(samples) {
		return pipelineerrors.NewDegenerateLabels(
			"classifier", "all %d training rows carry label %q", len(samples), samples[0].direction)
	}

	c.numFeatures = len(samples[0].features)
	c.trees = make([]*treeNode, c.opts.NumTrees)
	for i := range c.trees {
		rng := rand.New(rand.NewSource(c.opts.Seed + int64(i)))
		c.trees[i] = growTree(samples, c.opts.MaxDepth, c.opts.MinLeafSize, rng)
	}

	c.logger.Info("trained random forest",
		slog.Int("trees", len(c.trees)),
		slog.Int("training_rows", len(samples)),
		slog.Int("features", c.numFeatures))
	return nil
}

// Predict returns the majority vote over all trees for one row. Under the
// drop policy a row with missing features is not scorable and reports an
// error; under the impute policy missing features take the training mean.
func (c *Classifier) Predict(row labeling.LabeledRow) (labeling.Direction, error) {
	if len(c.trees) == 0 {
		return "", pipelineerrors.NewEmptyResult("classifier", "model is not trained")
	}

	features, ok := c.resolveFeatures(row)
	if !ok {
		return "", pipelineerrors.NewMalformedInput(
			"classifier", "row %s has missing features under the drop policy", row.Code)
	}

	ups := 0
	for _, tree := range c.trees {
		if tree.predict(features) == labeling.DirectionUp {
			ups++
		}
	}
	if ups*2 > len(c.trees) {
		return labeling.DirectionUp, nil
	}
	return labeling.DirectionDown, nil
}

// Evaluate scores a test set into a confusion matrix. An empty test set is
// reported as an error; rows unscorable under the drop policy are skipped
// and counted rather than failing the evaluation.
func (c *Classifier) Evaluate(test []labeling.LabeledRow) (*Evaluation, error) {
	if len(test) == 0 {
		return nil, pipelineerrors.NewEmptyResult("classifier", "test set is empty")
	}

	eval := &Evaluation{Confusion: NewConfusionMatrix()}
	for _, row := range test {
		predicted, err := c.Predict(row)
		if err != nil {
			if pe, ok := err.(*pipelineerrors.PipelineError); ok && pe.Code == pipelineerrors.CodeMalformedInput {
				eval.Skipped++
				continue
			}
			return nil, err
		}
		eval.Predictions = append(eval.Predictions, Prediction{
			Code:      row.Code,
			Predicted: predicted,
			Observed:  row.Direction,
		})
		eval.Confusion.Add(predicted, row.Direction)
	}

	if eval.Confusion.Total() == 0 {
		return nil, pipelineerrors.NewEmptyResult(
			"classifier", "no test rows scorable (%d skipped for missing features)", eval.Skipped)
	}

	eval.Accuracy = eval.Confusion.Accuracy()
	return eval, nil
}

// resolveTraining applies the missing policy to the training rows and, for
// impute, fixes the column means used for later scoring.
func (c *Classifier) resolveTraining(train []labeling.LabeledRow) ([]trainSample, int) {
	numFeatures := len(train[0].Features)

	if c.opts.MissingPolicy == MissingImpute {
		c.columnMeans = make([]float64, numFeatures)
		counts := make([]int, numFeatures)
		for _, row := range train {
			for i, cell := range row.Features {
				if cell.Valid {
					c.columnMeans[i] += cell.Value
					counts[i]++
				}
			}
		}
		for i := range c.columnMeans {
			if counts[i] > 0 {
				c.columnMeans[i] /= float64(counts[i])
			}
		}
	}

	var samples []trainSample
	dropped := 0
	for _, row := range train {
		features, ok := c.resolveFeatures(row)
		if !ok {
			dropped++
			continue
		}
		samples = append(samples, trainSample{features: features, direction: row.Direction})
	}
	return samples, dropped
}

// resolveFeatures produces a complete feature vector for one row, or
// reports that the row is unusable under the drop policy.
func (c *Classifier) resolveFeatures(row labeling.LabeledRow) ([]float64, bool) {
	features := make([]float64, len(row.Features))
	for i, cell := range row.Features {
		switch {
		case cell.Valid:
			features[i] = cell.Value
		case c.opts.MissingPolicy == MissingImpute:
			if c.columnMeans != nil && i < len(c.columnMeans) {
				features[i] = c.columnMeans[i]
			}
		default:
			return nil, false
		}
	}
	return features, true
}
