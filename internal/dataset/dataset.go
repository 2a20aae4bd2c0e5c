// =============================
// Activity Dataset Model
// =============================
// Feature matrices with parallel integer activity labels, the stable label
// encoding shared between train and test, and per-class bookkeeping used by
// the balancing stage.

package dataset

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// UnknownLabelError reports a label missing from the encoding table that was
// fit on training data. The table is never refit on test data.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("activity label %q not present in training encoding table", e.Label)
}

// LabelEncoder maps activity label strings to stable integer indices. The
// index order is the sorted order of the training labels, so the table is
// deterministic across runs.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// FitLabelEncoder builds the encoding table from training labels only.
func FitLabelEncoder(labels []string) *LabelEncoder {
	seen := make(map[string]bool)
	var classes []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Transform encodes labels through the fitted table.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		idx, ok := e.index[l]
		if !ok {
			return nil, &UnknownLabelError{Label: l}
		}
		out[i] = idx
	}
	return out, nil
}

// Classes returns the label alphabet in index order.
func (e *LabelEncoder) Classes() []string { return e.classes }

// NumClasses returns the alphabet size.
func (e *LabelEncoder) NumClasses() int { return len(e.classes) }

// ClassDistribution maps a class index to its sample count.
type ClassDistribution map[int]int

// Total returns the summed counts; it always equals the dataset size.
func (d ClassDistribution) Total() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

// MaxCount returns the largest per-class count, the balancing target.
func (d ClassDistribution) MaxCount() int {
	max := 0
	for _, c := range d {
		if c > max {
			max = c
		}
	}
	return max
}

// Dataset pairs a feature matrix (rows = observations) with integer labels.
type Dataset struct {
	X *mat.Dense
	Y []int
}

// New creates a dataset, validating that rows and labels line up.
func New(x *mat.Dense, y []int) (*Dataset, error) {
	rows, _ := x.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("dataset: %d feature rows but %d labels", rows, len(y))
	}
	return &Dataset{X: x, Y: y}, nil
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.Y) }

// Width returns the feature width.
func (d *Dataset) Width() int {
	_, cols := d.X.Dims()
	return cols
}

// Distribution recomputes the per-class sample counts.
func (d *Dataset) Distribution() ClassDistribution {
	dist := make(ClassDistribution)
	for _, y := range d.Y {
		dist[y]++
	}
	return dist
}

// Subset copies the selected rows into a new dataset.
func (d *Dataset) Subset(indices []int) *Dataset {
	cols := d.Width()
	x := mat.NewDense(len(indices), cols, nil)
	y := make([]int, len(indices))
	for i, idx := range indices {
		x.SetRow(i, mat.Row(nil, idx, d.X))
		y[i] = d.Y[idx]
	}
	return &Dataset{X: x, Y: y}
}

// ClassRows copies the feature rows belonging to one class.
func (d *Dataset) ClassRows(label int) *mat.Dense {
	var rows []int
	for i, y := range d.Y {
		if y == label {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	out := mat.NewDense(len(rows), d.Width(), nil)
	for i, idx := range rows {
		out.SetRow(i, mat.Row(nil, idx, d.X))
	}
	return out
}

// Append returns a new dataset with extra rows, all tagged with one label.
// Existing rows are shared, not copied; appended samples are never mutated
// afterwards.
func (d *Dataset) Append(x *mat.Dense, label int) (*Dataset, error) {
	rows, cols := x.Dims()
	if cols != d.Width() {
		return nil, fmt.Errorf("dataset append: width %d, want %d", cols, d.Width())
	}
	total := d.Len() + rows
	nx := mat.NewDense(total, cols, nil)
	ny := make([]int, total)
	for i := 0; i < d.Len(); i++ {
		nx.SetRow(i, mat.Row(nil, i, d.X))
		ny[i] = d.Y[i]
	}
	for i := 0; i < rows; i++ {
		nx.SetRow(d.Len()+i, mat.Row(nil, i, x))
		ny[d.Len()+i] = label
	}
	return &Dataset{X: nx, Y: ny}, nil
}

// OneHot expands integer labels into a one-hot matrix.
func OneHot(y []int, numClasses int) *mat.Dense {
	out := mat.NewDense(len(y), numClasses, nil)
	for i, label := range y {
		out.Set(i, label, 1)
	}
	return out
}
