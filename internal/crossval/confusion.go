package crossval

import (
	"fmt"
)

// ConfusionMatrix accumulates (true label, predicted label) counts across
// every fold's validation predictions. Counts are non-negative integers;
// each row sum equals the number of true instances of that row's class seen
// over the whole run.
type ConfusionMatrix struct {
	classes []string
	counts  [][]int
}

// NewConfusionMatrix creates an empty matrix over the label alphabet.
func NewConfusionMatrix(classes []string) *ConfusionMatrix {
	counts := make([][]int, len(classes))
	for i := range counts {
		counts[i] = make([]int, len(classes))
	}
	return &ConfusionMatrix{classes: classes, counts: counts}
}

// Add records one prediction.
func (c *ConfusionMatrix) Add(trueLabel, predLabel int) error {
	n := len(c.classes)
	if trueLabel < 0 || trueLabel >= n || predLabel < 0 || predLabel >= n {
		return fmt.Errorf("confusion matrix: labels (%d,%d) out of range [0,%d)", trueLabel, predLabel, n)
	}
	c.counts[trueLabel][predLabel]++
	return nil
}

// Classes returns the label alphabet in index order.
func (c *ConfusionMatrix) Classes() []string { return c.classes }

// Counts returns the raw integer matrix.
func (c *ConfusionMatrix) Counts() [][]int { return c.counts }

// At returns one cell.
func (c *ConfusionMatrix) At(trueLabel, predLabel int) int {
	return c.counts[trueLabel][predLabel]
}

// RowSum returns the true-instance total for one class.
func (c *ConfusionMatrix) RowSum(trueLabel int) int {
	sum := 0
	for _, v := range c.counts[trueLabel] {
		sum += v
	}
	return sum
}

// Total returns the number of recorded predictions.
func (c *ConfusionMatrix) Total() int {
	sum := 0
	for i := range c.counts {
		sum += c.RowSum(i)
	}
	return sum
}

// Normalized returns the row-normalized variant: each row divided by its
// true-class total. Rows with no instances stay zero.
func (c *ConfusionMatrix) Normalized() [][]float64 {
	out := make([][]float64, len(c.counts))
	for i, row := range c.counts {
		out[i] = make([]float64, len(row))
		total := c.RowSum(i)
		if total == 0 {
			continue
		}
		for j, v := range row {
			out[i][j] = float64(v) / float64(total)
		}
	}
	return out
}
