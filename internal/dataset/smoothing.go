package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Smooth applies a centered moving-average low-pass filter of odd window
// width to every column, attenuating high-frequency sensor noise before
// standardization. Edges shrink the window rather than padding.
func Smooth(x *mat.Dense, window int) (*mat.Dense, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("smoothing window %d must be positive and odd", window)
	}
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	half := window / 2
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			lo, hi := i-half, i+half
			if lo < 0 {
				lo = 0
			}
			if hi > rows-1 {
				hi = rows - 1
			}
			sum := 0.0
			for k := lo; k <= hi; k++ {
				sum += x.At(k, j)
			}
			out.Set(i, j, sum/float64(hi-lo+1))
		}
	}
	return out, nil
}
