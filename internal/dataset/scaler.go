package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each feature to zero mean and unit variance.
// Statistics are fit on training data only and reused for test data.
type StandardScaler struct {
	mean []float64
	std  []float64
}

// Fit computes per-column statistics.
func (s *StandardScaler) Fit(x *mat.Dense) {
	rows, cols := x.Dims()
	s.mean = make([]float64, cols)
	s.std = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		s.mean[j] = stat.Mean(col, nil)
		s.std[j] = stat.StdDev(col, nil)
		if s.std[j] == 0 || math.IsNaN(s.std[j]) {
			s.std[j] = 1
		}
	}
}

// Transform applies the fitted statistics to a matrix of the same width.
func (s *StandardScaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, fmt.Errorf("standard scaler: width %d, fitted for %d", cols, len(s.mean))
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (x.At(i, j)-s.mean[j])/s.std[j])
		}
	}
	return out, nil
}

// RangeScaler maps each feature into [-1, 1], the generator's output range.
// InverseTransform maps synthetic samples back to the reduced feature scale.
type RangeScaler struct {
	min []float64
	max []float64
}

// Fit records per-column minima and maxima.
func (s *RangeScaler) Fit(x *mat.Dense) {
	rows, cols := x.Dims()
	s.min = make([]float64, cols)
	s.max = make([]float64, cols)
	for j := 0; j < cols; j++ {
		lo, hi := x.At(0, j), x.At(0, j)
		for i := 1; i < rows; i++ {
			v := x.At(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		s.min[j], s.max[j] = lo, hi
	}
}

// Transform maps values into [-1, 1]. Constant columns map to 0.
func (s *RangeScaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.min) {
		return nil, fmt.Errorf("range scaler: width %d, fitted for %d", cols, len(s.min))
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			span := s.max[j] - s.min[j]
			if span == 0 {
				out.Set(i, j, 0)
				continue
			}
			out.Set(i, j, 2*(x.At(i, j)-s.min[j])/span-1)
		}
	}
	return out, nil
}

// InverseTransform maps [-1, 1] values back to the fitted scale.
func (s *RangeScaler) InverseTransform(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.min) {
		return nil, fmt.Errorf("range scaler: width %d, fitted for %d", cols, len(s.min))
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			span := s.max[j] - s.min[j]
			out.Set(i, j, s.min[j]+(x.At(i, j)+1)/2*span)
		}
	}
	return out, nil
}
