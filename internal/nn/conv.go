package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Conv1D slides Cout kernels of odd width K over the position axis with
// stride 1 and zero "same" padding, so the sequence length is preserved.
// Weights are stored as a (K*Cin)×Cout matrix; the window at position p is
// gathered into a K*Cin row vector in the same layout.
type Conv1D struct {
	name      string
	kernel    int
	cin, cout int
	w, b      *Param
	inShape   Shape
	lastIn    *mat.Dense
}

// NewConv1D creates a 1-D convolution. kernel must be odd.
func NewConv1D(name string, kernel, cin, cout int, rng *rand.Rand) *Conv1D {
	fanIn := kernel * cin
	return &Conv1D{
		name:   name,
		kernel: kernel,
		cin:    cin,
		cout:   cout,
		w:      newParam(name+".w", fanIn, cout, glorotInit(rng, fanIn, cout, fanIn*cout)),
		b:      newParam(name+".b", 1, cout, nil),
	}
}

func (c *Conv1D) OutShape(in Shape) (Shape, error) {
	if c.kernel%2 == 0 {
		return Shape{}, fmt.Errorf("conv %s: kernel width %d must be odd", c.name, c.kernel)
	}
	if in.Ch != c.cin {
		return Shape{}, fmt.Errorf("conv %s: input has %d channels, want %d", c.name, in.Ch, c.cin)
	}
	c.inShape = in
	return Shape{Len: in.Len, Ch: c.cout}, nil
}

func (c *Conv1D) Forward(x *mat.Dense, train bool) *mat.Dense {
	c.lastIn = x
	rows, _ := x.Dims()
	L, half := c.inShape.Len, c.kernel/2
	out := mat.NewDense(rows, L*c.cout, nil)
	for i := 0; i < rows; i++ {
		for p := 0; p < L; p++ {
			for oc := 0; oc < c.cout; oc++ {
				sum := c.b.W.At(0, oc)
				for k := 0; k < c.kernel; k++ {
					q := p + k - half
					if q < 0 || q >= L {
						continue
					}
					for ic := 0; ic < c.cin; ic++ {
						sum += x.At(i, q*c.cin+ic) * c.w.W.At(k*c.cin+ic, oc)
					}
				}
				out.Set(i, p*c.cout+oc, sum)
			}
		}
	}
	return out
}

func (c *Conv1D) Backward(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()
	L, half := c.inShape.Len, c.kernel/2
	dx := mat.NewDense(rows, L*c.cin, nil)
	for i := 0; i < rows; i++ {
		for p := 0; p < L; p++ {
			for oc := 0; oc < c.cout; oc++ {
				g := grad.At(i, p*c.cout+oc)
				if g == 0 {
					continue
				}
				c.b.Grad.Set(0, oc, c.b.Grad.At(0, oc)+g)
				for k := 0; k < c.kernel; k++ {
					q := p + k - half
					if q < 0 || q >= L {
						continue
					}
					for ic := 0; ic < c.cin; ic++ {
						wi := k*c.cin + ic
						c.w.Grad.Set(wi, oc, c.w.Grad.At(wi, oc)+g*c.lastIn.At(i, q*c.cin+ic))
						dx.Set(i, q*c.cin+ic, dx.At(i, q*c.cin+ic)+g*c.w.W.At(wi, oc))
					}
				}
			}
		}
	}
	return dx
}

func (c *Conv1D) Params() []*Param { return []*Param{c.w, c.b} }

// MaxPool1D halves the position axis with window/stride 2, per channel.
// An odd trailing position is dropped.
type MaxPool1D struct {
	name    string
	inShape Shape
	argmax  [][]int
}

func NewMaxPool1D(name string) *MaxPool1D { return &MaxPool1D{name: name} }

func (m *MaxPool1D) OutShape(in Shape) (Shape, error) {
	if in.Len < 2 {
		return Shape{}, fmt.Errorf("maxpool %s: sequence length %d too short", m.name, in.Len)
	}
	m.inShape = in
	return Shape{Len: in.Len / 2, Ch: in.Ch}, nil
}

func (m *MaxPool1D) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, _ := x.Dims()
	outL, ch := m.inShape.Len/2, m.inShape.Ch
	out := mat.NewDense(rows, outL*ch, nil)
	m.argmax = make([][]int, rows)
	for i := 0; i < rows; i++ {
		m.argmax[i] = make([]int, outL*ch)
		for p := 0; p < outL; p++ {
			for c := 0; c < ch; c++ {
				a := (2*p)*ch + c
				b := (2*p+1)*ch + c
				best, bi := x.At(i, a), a
				if v := x.At(i, b); v > best {
					best, bi = v, b
				}
				out.Set(i, p*ch+c, best)
				m.argmax[i][p*ch+c] = bi
			}
		}
	}
	return out
}

func (m *MaxPool1D) Backward(grad *mat.Dense) *mat.Dense {
	rows, cols := grad.Dims()
	dx := mat.NewDense(rows, m.inShape.Width(), nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			src := m.argmax[i][j]
			dx.Set(i, src, dx.At(i, src)+grad.At(i, j))
		}
	}
	return dx
}

func (m *MaxPool1D) Params() []*Param { return nil }

// GlobalAvgPool averages over the position axis, collapsing (L,C) to (C,1).
type GlobalAvgPool struct {
	inShape Shape
}

func NewGlobalAvgPool() *GlobalAvgPool { return &GlobalAvgPool{} }

func (g *GlobalAvgPool) OutShape(in Shape) (Shape, error) {
	g.inShape = in
	return Shape{Len: in.Ch, Ch: 1}, nil
}

func (g *GlobalAvgPool) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, _ := x.Dims()
	L, ch := g.inShape.Len, g.inShape.Ch
	out := mat.NewDense(rows, ch, nil)
	for i := 0; i < rows; i++ {
		for c := 0; c < ch; c++ {
			sum := 0.0
			for p := 0; p < L; p++ {
				sum += x.At(i, p*ch+c)
			}
			out.Set(i, c, sum/float64(L))
		}
	}
	return out
}

func (g *GlobalAvgPool) Backward(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()
	L, ch := g.inShape.Len, g.inShape.Ch
	dx := mat.NewDense(rows, L*ch, nil)
	for i := 0; i < rows; i++ {
		for c := 0; c < ch; c++ {
			share := grad.At(i, c) / float64(L)
			for p := 0; p < L; p++ {
				dx.Set(i, p*ch+c, share)
			}
		}
	}
	return dx
}

func (g *GlobalAvgPool) Params() []*Param { return nil }
