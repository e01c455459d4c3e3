package forest

import (
	"math"
	"math/rand"
	"sort"

	"tradepulse/internal/labeling"
)

// treeNode is one node of a CART decision tree. Internal nodes route on
// feature <= threshold; leaves carry the majority direction.
type treeNode struct {
	leaf       bool
	prediction labeling.Direction

	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// trainSample is one resolved training row: no missing values remain by the
// time trees see data.
type trainSample struct {
	features  []float64
	direction labeling.Direction
}

// growTree builds one tree on a bootstrap sample. rng drives both the
// bootstrap and the per-split feature subsampling, so a fixed per-tree seed
// fixes the whole tree.
func growTree(samples []trainSample, maxDepth, minLeafSize int, rng *rand.Rand) *treeNode {
	bootstrap := make([]trainSample, len(samples))
	for i := range bootstrap {
		bootstrap[i] = samples[rng.Intn(len(samples))]
	}
	numFeatures := len(samples[0].features)
	mtry := int(math.Ceil(math.Sqrt(float64(numFeatures))))
	return buildNode(bootstrap, maxDepth, minLeafSize, mtry, rng)
}

func buildNode(samples []trainSample, depth, minLeafSize, mtry int, rng *rand.Rand) *treeNode {
	if depth <= 0 || len(samples) < 2*minLeafSize || isPure(samples) {
		return &treeNode{leaf: true, prediction: majority(samples)}
	}

	feature, threshold, ok := bestSplit(samples, minLeafSize, mtry, rng)
	if !ok {
		return &treeNode{leaf: true, prediction: majority(samples)}
	}

	var left, right []trainSample
	for _, sample := range samples {
		if sample.features[feature] <= threshold {
			left = append(left, sample)
		} else {
			right = append(right, sample)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildNode(left, depth-1, minLeafSize, mtry, rng),
		right:     buildNode(right, depth-1, minLeafSize, mtry, rng),
	}
}

// bestSplit searches an mtry-sized random feature subset for the split with
// the lowest weighted gini impurity. Candidate thresholds are midpoints
// between consecutive distinct values.
func bestSplit(samples []trainSample, minLeafSize, mtry int, rng *rand.Rand) (int, float64, bool) {
	numFeatures := len(samples[0].features)
	candidates := rng.Perm(numFeatures)
	if mtry < len(candidates) {
		candidates = candidates[:mtry]
	}
	sort.Ints(candidates) // stable evaluation order for a given subset

	base := gini(samples)
	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for _, feature := range candidates {
		values := make([]float64, 0, len(samples))
		for _, sample := range samples {
			values = append(values, sample.features[feature])
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2

			var left, right []trainSample
			for _, sample := range samples {
				if sample.features[feature] <= threshold {
					left = append(left, sample)
				} else {
					right = append(right, sample)
				}
			}
			if len(left) < minLeafSize || len(right) < minLeafSize {
				continue
			}

			weighted := (float64(len(left))*gini(left) + float64(len(right))*gini(right)) / float64(len(samples))
			if weighted < bestGini {
				bestGini = weighted
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 || bestGini >= base {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func gini(samples []trainSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	ups := 0
	for _, sample := range samples {
		if sample.direction == labeling.DirectionUp {
			ups++
		}
	}
	p := float64(ups) / float64(len(samples))
	return 2 * p * (1 - p)
}

func isPure(samples []trainSample) bool {
	for _, sample := range samples[1:] {
		if sample.direction != samples[0].direction {
			return false
		}
	}
	return true
}

// majority returns the most common direction; ties go down, matching the
// labeler's tie policy.
func majority(samples []trainSample) labeling.Direction {
	ups := 0
	for _, sample := range samples {
		if sample.direction == labeling.DirectionUp {
			ups++
		}
	}
	if ups*2 > len(samples) {
		return labeling.DirectionUp
	}
	return labeling.DirectionDown
}

// predict routes one complete feature vector to a leaf.
func (n *treeNode) predict(features []float64) labeling.Direction {
	node := n
	for !node.leaf {
		if features[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.prediction
}
