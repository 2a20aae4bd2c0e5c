package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const lossEps = 1e-12

// MSELoss returns the mean squared error over all elements and its gradient
// with respect to the prediction.
func MSELoss(pred, target *mat.Dense) (float64, *mat.Dense) {
	rows, cols := pred.Dims()
	grad := mat.NewDense(rows, cols, nil)
	sum := 0.0
	n := float64(rows * cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := pred.At(i, j) - target.At(i, j)
			sum += d * d
			grad.Set(i, j, 2*d/n)
		}
	}
	return sum / n, grad
}

// BCELoss returns the mean binary cross-entropy between predicted
// probabilities and 0/1 targets, with its gradient.
func BCELoss(pred, target *mat.Dense) (float64, *mat.Dense) {
	rows, cols := pred.Dims()
	grad := mat.NewDense(rows, cols, nil)
	sum := 0.0
	n := float64(rows * cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p := clampProb(pred.At(i, j))
			t := target.At(i, j)
			sum += -(t*math.Log(p) + (1-t)*math.Log(1-p))
			grad.Set(i, j, (p-t)/(p*(1-p))/n)
		}
	}
	return sum / n, grad
}

// CrossEntropyLoss returns the mean categorical cross-entropy between
// predicted class probabilities and one-hot targets, with its gradient.
func CrossEntropyLoss(pred, target *mat.Dense) (float64, *mat.Dense) {
	rows, cols := pred.Dims()
	grad := mat.NewDense(rows, cols, nil)
	sum := 0.0
	n := float64(rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if t := target.At(i, j); t > 0 {
				p := clampProb(pred.At(i, j))
				sum += -t * math.Log(p)
				grad.Set(i, j, -t/p/n)
			}
		}
	}
	return sum / n, grad
}

func clampProb(p float64) float64 {
	if p < lossEps {
		return lossEps
	}
	if p > 1-lossEps {
		return 1 - lossEps
	}
	return p
}
