package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// MultiHeadAttention applies scaled dot-product self-attention over the
// position axis. Every position attends to every other position, so the
// receptive field is global regardless of position order. Channels are split
// evenly across heads; the head outputs are re-concatenated and projected.
type MultiHeadAttention struct {
	name    string
	heads   int
	dm      int // model width (channels), divisible by heads
	dk      int // per-head width
	wq, wk  *Param
	wv, wo  *Param
	inShape Shape

	// per-sample caches from the last forward pass
	lastX []*mat.Dense
	lastQ []*mat.Dense
	lastK []*mat.Dense
	lastV []*mat.Dense
	lastA [][]*mat.Dense // [sample][head] attention weights, L×L
	lastO []*mat.Dense   // concatenated head outputs before Wo
}

// NewMultiHeadAttention creates an attention layer for dm channels split
// across heads. dm must divide evenly by heads.
func NewMultiHeadAttention(name string, dm, heads int, rng *rand.Rand) *MultiHeadAttention {
	return &MultiHeadAttention{
		name:  name,
		heads: heads,
		dm:    dm,
		dk:    dm / heads,
		wq:    newParam(name+".wq", dm, dm, glorotInit(rng, dm, dm, dm*dm)),
		wk:    newParam(name+".wk", dm, dm, glorotInit(rng, dm, dm, dm*dm)),
		wv:    newParam(name+".wv", dm, dm, glorotInit(rng, dm, dm, dm*dm)),
		wo:    newParam(name+".wo", dm, dm, glorotInit(rng, dm, dm, dm*dm)),
	}
}

func (m *MultiHeadAttention) OutShape(in Shape) (Shape, error) {
	if in.Ch != m.dm {
		return Shape{}, fmt.Errorf("attention %s: input has %d channels, want %d", m.name, in.Ch, m.dm)
	}
	if m.dm%m.heads != 0 {
		return Shape{}, fmt.Errorf("attention %s: %d channels not divisible by %d heads", m.name, m.dm, m.heads)
	}
	m.inShape = in
	return in, nil
}

// asSeq reinterprets one flat batch row as an L×C matrix without copying.
func (m *MultiHeadAttention) asSeq(x *mat.Dense, row int) *mat.Dense {
	return mat.NewDense(m.inShape.Len, m.dm, mat.Row(nil, row, x))
}

func (m *MultiHeadAttention) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, _ := x.Dims()
	L := m.inShape.Len
	scale := 1.0 / math.Sqrt(float64(m.dk))

	out := mat.NewDense(rows, L*m.dm, nil)
	m.lastX = make([]*mat.Dense, rows)
	m.lastQ = make([]*mat.Dense, rows)
	m.lastK = make([]*mat.Dense, rows)
	m.lastV = make([]*mat.Dense, rows)
	m.lastA = make([][]*mat.Dense, rows)
	m.lastO = make([]*mat.Dense, rows)

	for i := 0; i < rows; i++ {
		xs := m.asSeq(x, i)
		q := mat.NewDense(L, m.dm, nil)
		k := mat.NewDense(L, m.dm, nil)
		v := mat.NewDense(L, m.dm, nil)
		q.Mul(xs, m.wq.W)
		k.Mul(xs, m.wk.W)
		v.Mul(xs, m.wv.W)

		o := mat.NewDense(L, m.dm, nil)
		attn := make([]*mat.Dense, m.heads)
		for h := 0; h < m.heads; h++ {
			qh := q.Slice(0, L, h*m.dk, (h+1)*m.dk)
			kh := k.Slice(0, L, h*m.dk, (h+1)*m.dk)
			vh := v.Slice(0, L, h*m.dk, (h+1)*m.dk)

			scores := mat.NewDense(L, L, nil)
			scores.Mul(qh, kh.T())
			scores.Scale(scale, scores)
			softmaxRows(scores)
			attn[h] = scores

			oh := mat.NewDense(L, m.dk, nil)
			oh.Mul(scores, vh)
			for p := 0; p < L; p++ {
				for c := 0; c < m.dk; c++ {
					o.Set(p, h*m.dk+c, oh.At(p, c))
				}
			}
		}

		y := mat.NewDense(L, m.dm, nil)
		y.Mul(o, m.wo.W)
		for p := 0; p < L; p++ {
			for c := 0; c < m.dm; c++ {
				out.Set(i, p*m.dm+c, y.At(p, c))
			}
		}

		m.lastX[i] = xs
		m.lastQ[i] = q
		m.lastK[i] = k
		m.lastV[i] = v
		m.lastA[i] = attn
		m.lastO[i] = o
	}
	return out
}

func (m *MultiHeadAttention) Backward(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()
	L := m.inShape.Len
	scale := 1.0 / math.Sqrt(float64(m.dk))
	dx := mat.NewDense(rows, L*m.dm, nil)

	for i := 0; i < rows; i++ {
		dy := mat.NewDense(L, m.dm, mat.Row(nil, i, grad))

		// output projection
		var dwo mat.Dense
		dwo.Mul(m.lastO[i].T(), dy)
		m.wo.Grad.Add(m.wo.Grad, &dwo)
		do := mat.NewDense(L, m.dm, nil)
		do.Mul(dy, m.wo.W.T())

		dq := mat.NewDense(L, m.dm, nil)
		dk := mat.NewDense(L, m.dm, nil)
		dv := mat.NewDense(L, m.dm, nil)
		for h := 0; h < m.heads; h++ {
			qh := m.lastQ[i].Slice(0, L, h*m.dk, (h+1)*m.dk)
			kh := m.lastK[i].Slice(0, L, h*m.dk, (h+1)*m.dk)
			vh := m.lastV[i].Slice(0, L, h*m.dk, (h+1)*m.dk)
			a := m.lastA[i][h]
			doh := mat.DenseCopyOf(do.Slice(0, L, h*m.dk, (h+1)*m.dk))

			var da mat.Dense
			da.Mul(doh, vh.T())
			var dvh mat.Dense
			dvh.Mul(a.T(), doh)

			// softmax backward per attention row
			ds := mat.NewDense(L, L, nil)
			for p := 0; p < L; p++ {
				dot := 0.0
				for q := 0; q < L; q++ {
					dot += da.At(p, q) * a.At(p, q)
				}
				for q := 0; q < L; q++ {
					ds.Set(p, q, a.At(p, q)*(da.At(p, q)-dot)*scale)
				}
			}

			var dqh, dkh mat.Dense
			dqh.Mul(ds, kh)
			dkh.Mul(ds.T(), qh)
			for p := 0; p < L; p++ {
				for c := 0; c < m.dk; c++ {
					dq.Set(p, h*m.dk+c, dqh.At(p, c))
					dk.Set(p, h*m.dk+c, dkh.At(p, c))
					dv.Set(p, h*m.dk+c, dvh.At(p, c))
				}
			}
		}

		xs := m.lastX[i]
		var dwq, dwk, dwv mat.Dense
		dwq.Mul(xs.T(), dq)
		dwk.Mul(xs.T(), dk)
		dwv.Mul(xs.T(), dv)
		m.wq.Grad.Add(m.wq.Grad, &dwq)
		m.wk.Grad.Add(m.wk.Grad, &dwk)
		m.wv.Grad.Add(m.wv.Grad, &dwv)

		dxs := mat.NewDense(L, m.dm, nil)
		var tmp mat.Dense
		tmp.Mul(dq, m.wq.W.T())
		dxs.Add(dxs, &tmp)
		tmp.Reset()
		tmp.Mul(dk, m.wk.W.T())
		dxs.Add(dxs, &tmp)
		tmp.Reset()
		tmp.Mul(dv, m.wv.W.T())
		dxs.Add(dxs, &tmp)

		for p := 0; p < L; p++ {
			for c := 0; c < m.dm; c++ {
				dx.Set(i, p*m.dm+c, dxs.At(p, c))
			}
		}
	}
	return dx
}

func (m *MultiHeadAttention) Params() []*Param {
	return []*Param{m.wq, m.wk, m.wv, m.wo}
}

// softmaxRows applies a numerically stable softmax to each row in place.
func softmaxRows(x *mat.Dense) {
	rows, cols := x.Dims()
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
			x.Set(i, j, e)
			sum += e
		}
		for j := 0; j < cols; j++ {
			x.Set(i, j, x.At(i, j)/sum)
		}
	}
}
