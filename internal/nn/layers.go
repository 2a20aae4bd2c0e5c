package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param is one trainable parameter matrix with its accumulated gradient.
// Optimizers own the update rule; layers only fill Grad during Backward.
type Param struct {
	Name string
	W    *mat.Dense
	Grad *mat.Dense
}

func newParam(name string, rows, cols int, data []float64) *Param {
	return &Param{
		Name: name,
		W:    mat.NewDense(rows, cols, data),
		Grad: mat.NewDense(rows, cols, nil),
	}
}

// Layer is a differentiable stage. Forward caches whatever Backward needs;
// a layer instance therefore belongs to exactly one model.
type Layer interface {
	OutShape(in Shape) (Shape, error)
	Forward(x *mat.Dense, train bool) *mat.Dense
	Backward(grad *mat.Dense) *mat.Dense
	Params() []*Param
}

// glorotInit draws fan-in/fan-out scaled uniform weights.
func glorotInit(rng *rand.Rand, fanIn, fanOut, n int) []float64 {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := make([]float64, n)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return data
}

// Dense is a fully connected layer over the flat row representation.
type Dense struct {
	name     string
	in, out  int
	w, b     *Param
	lastIn   *mat.Dense
}

// NewDense creates a Dense layer with Glorot-initialized weights.
func NewDense(name string, in, out int, rng *rand.Rand) *Dense {
	return &Dense{
		name: name,
		in:   in,
		out:  out,
		w:    newParam(name+".w", in, out, glorotInit(rng, in, out, in*out)),
		b:    newParam(name+".b", 1, out, nil),
	}
}

func (d *Dense) OutShape(in Shape) (Shape, error) {
	if in.Width() != d.in {
		return Shape{}, fmt.Errorf("dense %s: input width %d, want %d", d.name, in.Width(), d.in)
	}
	return Shape{Len: d.out, Ch: 1}, nil
}

func (d *Dense) Forward(x *mat.Dense, train bool) *mat.Dense {
	d.lastIn = x
	rows, _ := x.Dims()
	out := mat.NewDense(rows, d.out, nil)
	out.Mul(x, d.w.W)
	for i := 0; i < rows; i++ {
		for j := 0; j < d.out; j++ {
			out.Set(i, j, out.At(i, j)+d.b.W.At(0, j))
		}
	}
	return out
}

func (d *Dense) Backward(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()
	var dw mat.Dense
	dw.Mul(d.lastIn.T(), grad)
	d.w.Grad.Add(d.w.Grad, &dw)
	for j := 0; j < d.out; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += grad.At(i, j)
		}
		d.b.Grad.Set(0, j, d.b.Grad.At(0, j)+sum)
	}
	dx := mat.NewDense(rows, d.in, nil)
	dx.Mul(grad, d.w.W.T())
	return dx
}

func (d *Dense) Params() []*Param { return []*Param{d.w, d.b} }

// Activation kinds supported by the element-wise activation layer.
const (
	ActReLU      = "relu"
	ActLeakyReLU = "leaky_relu"
	ActTanh      = "tanh"
	ActSigmoid   = "sigmoid"
)

// Activation applies an element-wise non-linearity. Shape is preserved.
type Activation struct {
	kind    string
	lastIn  *mat.Dense
	lastOut *mat.Dense
}

func NewActivation(kind string) *Activation { return &Activation{kind: kind} }

func (a *Activation) OutShape(in Shape) (Shape, error) { return in, nil }

func (a *Activation) Forward(x *mat.Dense, train bool) *mat.Dense {
	a.lastIn = x
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, a.apply(x.At(i, j)))
		}
	}
	a.lastOut = out
	return out
}

func (a *Activation) apply(v float64) float64 {
	switch a.kind {
	case ActReLU:
		if v < 0 {
			return 0
		}
		return v
	case ActLeakyReLU:
		if v < 0 {
			return 0.2 * v
		}
		return v
	case ActTanh:
		return math.Tanh(v)
	case ActSigmoid:
		return 1.0 / (1.0 + math.Exp(-v))
	}
	return v
}

func (a *Activation) derivative(in, out float64) float64 {
	switch a.kind {
	case ActReLU:
		if in < 0 {
			return 0
		}
		return 1
	case ActLeakyReLU:
		if in < 0 {
			return 0.2
		}
		return 1
	case ActTanh:
		return 1 - out*out
	case ActSigmoid:
		return out * (1 - out)
	}
	return 1
}

func (a *Activation) Backward(grad *mat.Dense) *mat.Dense {
	rows, cols := grad.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dx.Set(i, j, grad.At(i, j)*a.derivative(a.lastIn.At(i, j), a.lastOut.At(i, j)))
		}
	}
	return dx
}

func (a *Activation) Params() []*Param { return nil }

// Softmax turns the final row of logits into a probability distribution.
// Backward applies the exact softmax Jacobian-vector product per row.
type Softmax struct {
	lastOut *mat.Dense
}

func NewSoftmax() *Softmax { return &Softmax{} }

func (s *Softmax) OutShape(in Shape) (Shape, error) { return in, nil }

func (s *Softmax) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		maxv := x.At(i, 0)
		for j := 1; j < cols; j++ {
			if v := x.At(i, j); v > maxv {
				maxv = v
			}
		}
		sum := 0.0
		for j := 0; j < cols; j++ {
			e := math.Exp(x.At(i, j) - maxv)
			out.Set(i, j, e)
			sum += e
		}
		for j := 0; j < cols; j++ {
			out.Set(i, j, out.At(i, j)/sum)
		}
	}
	s.lastOut = out
	return out
}

func (s *Softmax) Backward(grad *mat.Dense) *mat.Dense {
	rows, cols := grad.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		dot := 0.0
		for j := 0; j < cols; j++ {
			dot += grad.At(i, j) * s.lastOut.At(i, j)
		}
		for j := 0; j < cols; j++ {
			p := s.lastOut.At(i, j)
			dx.Set(i, j, p*(grad.At(i, j)-dot))
		}
	}
	return dx
}

func (s *Softmax) Params() []*Param { return nil }

// LayerNorm normalizes each sample's flat row to zero mean / unit variance,
// then applies a learned per-feature scale and shift.
type LayerNorm struct {
	name  string
	width int
	eps   float64
	gamma *Param
	beta  *Param

	lastNorm *mat.Dense
	lastStd  []float64
}

func NewLayerNorm(name string, width int) *LayerNorm {
	gamma := make([]float64, width)
	for i := range gamma {
		gamma[i] = 1
	}
	return &LayerNorm{
		name:  name,
		width: width,
		eps:   1e-5,
		gamma: newParam(name+".gamma", 1, width, gamma),
		beta:  newParam(name+".beta", 1, width, nil),
	}
}

func (l *LayerNorm) OutShape(in Shape) (Shape, error) {
	if in.Width() != l.width {
		return Shape{}, fmt.Errorf("layernorm %s: input width %d, want %d", l.name, in.Width(), l.width)
	}
	return in, nil
}

func (l *LayerNorm) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	l.lastNorm = mat.NewDense(rows, cols, nil)
	l.lastStd = make([]float64, rows)
	for i := 0; i < rows; i++ {
		mean := 0.0
		for j := 0; j < cols; j++ {
			mean += x.At(i, j)
		}
		mean /= float64(cols)
		variance := 0.0
		for j := 0; j < cols; j++ {
			d := x.At(i, j) - mean
			variance += d * d
		}
		variance /= float64(cols)
		std := math.Sqrt(variance + l.eps)
		l.lastStd[i] = std
		for j := 0; j < cols; j++ {
			n := (x.At(i, j) - mean) / std
			l.lastNorm.Set(i, j, n)
			out.Set(i, j, n*l.gamma.W.At(0, j)+l.beta.W.At(0, j))
		}
	}
	return out
}

func (l *LayerNorm) Backward(grad *mat.Dense) *mat.Dense {
	rows, cols := grad.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		dg, db := 0.0, 0.0
		for i := 0; i < rows; i++ {
			dg += grad.At(i, j) * l.lastNorm.At(i, j)
			db += grad.At(i, j)
		}
		l.gamma.Grad.Set(0, j, l.gamma.Grad.At(0, j)+dg)
		l.beta.Grad.Set(0, j, l.beta.Grad.At(0, j)+db)
	}
	nf := float64(cols)
	for i := 0; i < rows; i++ {
		// dnorm for the row, then the standard layer-norm input gradient
		sumD, sumDN := 0.0, 0.0
		dnorm := make([]float64, cols)
		for j := 0; j < cols; j++ {
			dnorm[j] = grad.At(i, j) * l.gamma.W.At(0, j)
			sumD += dnorm[j]
			sumDN += dnorm[j] * l.lastNorm.At(i, j)
		}
		for j := 0; j < cols; j++ {
			n := l.lastNorm.At(i, j)
			dx.Set(i, j, (dnorm[j]-sumD/nf-n*sumDN/nf)/l.lastStd[i])
		}
	}
	return dx
}

func (l *LayerNorm) Params() []*Param { return []*Param{l.gamma, l.beta} }

// Flatten reinterprets a (Len,Ch) stage as a flat (Len*Ch,1) vector. The row
// data is already flat, so this is shape bookkeeping only.
type Flatten struct{}

func NewFlatten() *Flatten { return &Flatten{} }

func (f *Flatten) OutShape(in Shape) (Shape, error) {
	return Shape{Len: in.Width(), Ch: 1}, nil
}

func (f *Flatten) Forward(x *mat.Dense, train bool) *mat.Dense { return x }
func (f *Flatten) Backward(grad *mat.Dense) *mat.Dense         { return grad }
func (f *Flatten) Params() []*Param                            { return nil }
