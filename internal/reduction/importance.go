package reduction

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ImportanceConfig holds the auxiliary-ensemble hyperparameters for top-K
// feature selection.
type ImportanceConfig struct {
	TopK     int   `json:"top_k" mapstructure:"top_k"`
	Trees    int   `json:"trees" mapstructure:"trees"`
	MaxDepth int   `json:"max_depth" mapstructure:"max_depth"`
	MinLeaf  int   `json:"min_leaf" mapstructure:"min_leaf"`
	Seed     int64 `json:"seed" mapstructure:"seed"`
}

// DefaultImportanceConfig returns the ensemble settings used for sensor
// feature ranking.
func DefaultImportanceConfig() ImportanceConfig {
	return ImportanceConfig{TopK: 125, Trees: 50, MaxDepth: 6, MinLeaf: 5, Seed: 7}
}

// ImportanceSelector keeps the K raw features ranked most informative by an
// ensemble of extremely randomized trees (gini impurity decrease). It is the
// second statistical reduction variant: no projection, just column selection.
// Labels for the training matrix are supplied at construction since the
// auxiliary classifier is supervised.
type ImportanceSelector struct {
	cfg    ImportanceConfig
	labels []int

	inWidth     int
	selected    []int
	importances []float64
}

// NewImportanceSelector creates a selector for the given training labels.
func NewImportanceSelector(cfg ImportanceConfig, labels []int) *ImportanceSelector {
	return &ImportanceSelector{cfg: cfg, labels: labels}
}

// OutputWidth returns K.
func (s *ImportanceSelector) OutputWidth() int { return s.cfg.TopK }

// SelectedFeatures returns the chosen column indices in rank order.
func (s *ImportanceSelector) SelectedFeatures() []int { return s.selected }

// Fit grows the ensemble on bootstrap samples and ranks features by
// accumulated impurity decrease.
func (s *ImportanceSelector) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	if rows != len(s.labels) {
		return fmt.Errorf("importance selector: %d rows but %d labels", rows, len(s.labels))
	}
	if s.cfg.TopK > cols {
		return fmt.Errorf("importance selector: top_k %d exceeds feature width %d", s.cfg.TopK, cols)
	}
	rng := rand.New(rand.NewSource(s.cfg.Seed))
	s.importances = make([]float64, cols)
	s.inWidth = cols

	sample := make([]int, rows)
	for t := 0; t < s.cfg.Trees; t++ {
		for i := range sample {
			sample[i] = rng.Intn(rows)
		}
		s.growTree(x, sample, 0, rng)
	}

	ranked := make([]int, cols)
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return s.importances[ranked[a]] > s.importances[ranked[b]]
	})
	s.selected = ranked[:s.cfg.TopK]
	return nil
}

// growTree recursively splits one bootstrap sample, crediting each accepted
// split's impurity decrease to its feature.
func (s *ImportanceSelector) growTree(x *mat.Dense, indices []int, depth int, rng *rand.Rand) {
	if depth >= s.cfg.MaxDepth || len(indices) < 2*s.cfg.MinLeaf {
		return
	}
	parentGini := s.gini(indices)
	if parentGini == 0 {
		return
	}

	_, cols := x.Dims()
	tries := int(math.Sqrt(float64(cols))) + 1
	bestGain := 0.0
	var bestLeft, bestRight []int
	bestFeature := -1

	for k := 0; k < tries; k++ {
		f := rng.Intn(cols)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, idx := range indices {
			v := x.At(idx, f)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi <= lo {
			continue
		}
		// extremely randomized split point
		threshold := lo + rng.Float64()*(hi-lo)
		var left, right []int
		for _, idx := range indices {
			if x.At(idx, f) <= threshold {
				left = append(left, idx)
			} else {
				right = append(right, idx)
			}
		}
		if len(left) < s.cfg.MinLeaf || len(right) < s.cfg.MinLeaf {
			continue
		}
		n, nl, nr := float64(len(indices)), float64(len(left)), float64(len(right))
		gain := parentGini - (nl/n)*s.gini(left) - (nr/n)*s.gini(right)
		if gain > bestGain {
			bestGain, bestFeature = gain, f
			bestLeft, bestRight = left, right
		}
	}
	if bestFeature < 0 {
		return
	}
	s.importances[bestFeature] += bestGain * float64(len(indices))
	s.growTree(x, bestLeft, depth+1, rng)
	s.growTree(x, bestRight, depth+1, rng)
}

func (s *ImportanceSelector) gini(indices []int) float64 {
	counts := make(map[int]int)
	for _, idx := range indices {
		counts[s.labels[idx]]++
	}
	n := float64(len(indices))
	g := 1.0
	for _, c := range counts {
		p := float64(c) / n
		g -= p * p
	}
	return g
}

// Apply keeps only the selected columns.
func (s *ImportanceSelector) Apply(x *mat.Dense) (*mat.Dense, error) {
	if s.selected == nil {
		return nil, fmt.Errorf("importance selector: Apply before Fit")
	}
	rows, cols := x.Dims()
	if cols != s.inWidth {
		return nil, &DimensionMismatchError{Stage: "importance selector", Got: cols, Want: s.inWidth}
	}
	out := mat.NewDense(rows, len(s.selected), nil)
	for i := 0; i < rows; i++ {
		for j, f := range s.selected {
			out.Set(i, j, x.At(i, f))
		}
	}
	return out, nil
}
