package crossval

import (
	"fmt"
	"math/rand"
	"sort"
)

// Fold is one disjoint train/validation index pair over the dataset.
type Fold struct {
	Train []int
	Val   []int
}

// DegenerateFoldError reports a class entirely absent from a fold's training
// slice. The harness cannot correct this, so it is surfaced instead of
// producing meaningless accuracy for the class.
type DegenerateFoldError struct {
	Fold  int
	Class string
}

func (e *DegenerateFoldError) Error() string {
	return fmt.Sprintf("fold %d: class %q absent from training partition", e.Fold, e.Class)
}

// StratifiedKFold partitions indices into k folds whose validation slices
// preserve, as closely as integer counts allow, the overall class
// proportions. The split is deterministic under the given seed: per-class
// index lists are shuffled once, then dealt round-robin across folds.
func StratifiedKFold(y []int, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("stratified k-fold: need k >= 2, got %d", k)
	}
	if len(y) < k {
		return nil, fmt.Errorf("stratified k-fold: %d samples cannot fill %d folds", len(y), k)
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	labels := make([]int, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	rng := rand.New(rand.NewSource(seed))
	valSets := make([][]int, k)
	for _, label := range labels {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
		for i, idx := range indices {
			f := i % k
			valSets[f] = append(valSets[f], idx)
		}
	}

	folds := make([]Fold, k)
	inVal := make([]int, len(y)) // fold index per sample
	for f, val := range valSets {
		sort.Ints(val)
		folds[f].Val = val
		for _, idx := range val {
			inVal[idx] = f
		}
	}
	for f := range folds {
		for idx := range y {
			if inVal[idx] != f {
				folds[f].Train = append(folds[f].Train, idx)
			}
		}
	}
	return folds, nil
}

// checkFolds verifies that every class present overall appears in each
// fold's training slice, returning the first degenerate fold found.
func checkFolds(folds []Fold, y []int, classes []string) error {
	present := make(map[int]bool)
	for _, label := range y {
		present[label] = true
	}
	for f, fold := range folds {
		seen := make(map[int]bool)
		for _, idx := range fold.Train {
			seen[y[idx]] = true
		}
		for label := range present {
			if !seen[label] {
				name := fmt.Sprintf("class_%d", label)
				if label >= 0 && label < len(classes) {
					name = classes[label]
				}
				return &DegenerateFoldError{Fold: f, Class: name}
			}
		}
	}
	return nil
}
