package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Adam implements the Adam update rule with bias correction. One instance
// owns the moment state for one model's parameter list.
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
	m, v  map[*Param]*mat.Dense
}

// NewAdam creates an Adam optimizer with the given learning rate and the
// usual 0.9/0.999 moment decays.
func NewAdam(lr float64) *Adam {
	return &Adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     make(map[*Param]*mat.Dense),
		v:     make(map[*Param]*mat.Dense),
	}
}

// Step applies one update to every parameter from its accumulated gradient,
// then clears the gradients.
func (a *Adam) Step(params []*Param) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for _, p := range params {
		rows, cols := p.W.Dims()
		mState, ok := a.m[p]
		if !ok {
			mState = mat.NewDense(rows, cols, nil)
			a.m[p] = mState
			a.v[p] = mat.NewDense(rows, cols, nil)
		}
		vState := a.v[p]
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				g := p.Grad.At(i, j)
				mv := a.beta1*mState.At(i, j) + (1-a.beta1)*g
				vv := a.beta2*vState.At(i, j) + (1-a.beta2)*g*g
				mState.Set(i, j, mv)
				vState.Set(i, j, vv)
				p.W.Set(i, j, p.W.At(i, j)-a.lr*(mv/c1)/(math.Sqrt(vv/c2)+a.eps))
			}
		}
		p.Grad.Zero()
	}
}
