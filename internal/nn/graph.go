// =============================
// Computation Graph Builder
// =============================
// Named stages with declared input/output shapes, composed into a DAG and
// compiled into a trainable model. Branch merging (concat) is a first-class
// node kind so dual-branch architectures stay testable before training.

package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Shape describes a stage output as a sequence of Len positions with Ch
// channels. The flat, batch-row representation has width Len*Ch, laid out
// position-major: column p*Ch+c holds position p, channel c.
type Shape struct {
	Len int
	Ch  int
}

// Width returns the flat row width of the shape.
func (s Shape) Width() int { return s.Len * s.Ch }

func (s Shape) String() string { return fmt.Sprintf("(%d,%d)", s.Len, s.Ch) }

type nodeKind int

const (
	nodeInput nodeKind = iota
	nodeLayer
	nodeConcat
)

type node struct {
	name   string
	kind   nodeKind
	layer  Layer
	inputs []string
	shape  Shape // resolved at compile time
}

// Graph accumulates named stages before compilation. Stage names must be
// unique; edges refer to stages by name.
type Graph struct {
	name  string
	nodes []*node
	byNam map[string]*node
}

// NewGraph creates an empty graph.
func NewGraph(name string) *Graph {
	return &Graph{name: name, byNam: make(map[string]*node)}
}

func (g *Graph) add(n *node) error {
	if _, dup := g.byNam[n.name]; dup {
		return fmt.Errorf("graph %s: duplicate stage %q", g.name, n.name)
	}
	g.nodes = append(g.nodes, n)
	g.byNam[n.name] = n
	return nil
}

// Input declares the graph input stage with its shape.
func (g *Graph) Input(name string, shape Shape) error {
	return g.add(&node{name: name, kind: nodeInput, shape: shape})
}

// Stage appends a layer consuming a single upstream stage.
func (g *Graph) Stage(name string, layer Layer, input string) error {
	return g.add(&node{name: name, kind: nodeLayer, layer: layer, inputs: []string{input}})
}

// Concat merges two or more upstream stages by flat concatenation along the
// feature axis. The merged shape is ({sum of widths}, 1).
func (g *Graph) Concat(name string, inputs ...string) error {
	if len(inputs) < 2 {
		return fmt.Errorf("graph %s: concat %q needs at least two inputs", g.name, name)
	}
	return g.add(&node{name: name, kind: nodeConcat, inputs: inputs})
}

// Compile resolves shapes, checks the DAG and returns an executable model
// whose output is the named stage.
func (g *Graph) Compile(output string) (*Model, error) {
	if _, ok := g.byNam[output]; !ok {
		return nil, fmt.Errorf("graph %s: unknown output stage %q", g.name, output)
	}
	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}
	// Resolve shapes in topological order.
	for _, n := range order {
		switch n.kind {
		case nodeInput:
			// declared up front
		case nodeLayer:
			in := g.byNam[n.inputs[0]]
			out, err := n.layer.OutShape(in.shape)
			if err != nil {
				return nil, fmt.Errorf("graph %s: stage %q: %w", g.name, n.name, err)
			}
			n.shape = out
		case nodeConcat:
			width := 0
			for _, in := range n.inputs {
				width += g.byNam[in].shape.Width()
			}
			n.shape = Shape{Len: width, Ch: 1}
		}
	}
	m := &Model{
		name:   g.name,
		nodes:  order,
		byName: g.byNam,
		output: g.byNam[output],
	}
	for _, n := range order {
		if n.kind == nodeLayer {
			m.params = append(m.params, n.layer.Params()...)
		}
	}
	return m, nil
}

// topoSort orders nodes so every stage follows its inputs, rejecting cycles
// and dangling edges.
func (g *Graph) topoSort() ([]*node, error) {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var order []*node
	var visit func(n *node) error
	visit = func(n *node) error {
		switch color[n.name] {
		case grey:
			return fmt.Errorf("graph %s: cycle through stage %q", g.name, n.name)
		case black:
			return nil
		}
		color[n.name] = grey
		for _, in := range n.inputs {
			up, ok := g.byNam[in]
			if !ok {
				return fmt.Errorf("graph %s: stage %q references unknown input %q", g.name, n.name, in)
			}
			if err := visit(up); err != nil {
				return err
			}
		}
		color[n.name] = black
		order = append(order, n)
		return nil
	}
	for _, n := range g.nodes {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Model is a compiled graph: an execution order plus the flat parameter list
// handed to an optimizer.
type Model struct {
	name   string
	nodes  []*node
	byName map[string]*node
	output *node
	params []*Param

	// per-node activations of the last forward pass, keyed by stage name
	acts map[string]*mat.Dense
}

// Name returns the graph name the model was compiled from.
func (m *Model) Name() string { return m.name }

// Params returns every trainable parameter in execution order.
func (m *Model) Params() []*Param { return m.params }

// InShape reports the declared input shape.
func (m *Model) InShape() Shape {
	for _, n := range m.nodes {
		if n.kind == nodeInput {
			return n.shape
		}
	}
	return Shape{}
}

// OutShape reports the resolved output shape.
func (m *Model) OutShape() Shape { return m.output.shape }

// StageShape reports the resolved shape of a named stage, for asserting a
// merge or branch output without running data through the model.
func (m *Model) StageShape(name string) (Shape, bool) {
	n, ok := m.byName[name]
	if !ok {
		return Shape{}, false
	}
	return n.shape, true
}

// Forward runs a batch (rows = samples) through the graph and returns the
// output activation. train toggles training-time behavior in layers.
func (m *Model) Forward(x *mat.Dense, train bool) (*mat.Dense, error) {
	_, cols := x.Dims()
	if want := m.InShape().Width(); cols != want {
		return nil, &DimensionMismatchError{Stage: m.name, Got: cols, Want: want}
	}
	m.acts = make(map[string]*mat.Dense, len(m.nodes))
	for _, n := range m.nodes {
		switch n.kind {
		case nodeInput:
			m.acts[n.name] = x
		case nodeLayer:
			m.acts[n.name] = n.layer.Forward(m.acts[n.inputs[0]], train)
		case nodeConcat:
			parts := make([]*mat.Dense, len(n.inputs))
			for i, in := range n.inputs {
				parts[i] = m.acts[in]
			}
			m.acts[n.name] = hconcat(parts)
		}
	}
	return m.acts[m.output.name], nil
}

// StageOutput returns a named stage's activation from the last forward
// pass, letting callers keep only part of a trained graph (an encoder half,
// a branch output) without recompiling.
func (m *Model) StageOutput(name string) (*mat.Dense, bool) {
	out, ok := m.acts[name]
	return out, ok
}

// Backward propagates the loss gradient of the last forward pass,
// accumulates parameter gradients and returns the gradient at the input
// stage. Layers feeding several consumers receive the sum of their
// consumers' gradients. The input gradient is what lets one model train
// through another model held frozen.
func (m *Model) Backward(grad *mat.Dense) *mat.Dense {
	pending := map[string]*mat.Dense{m.output.name: grad}
	var inputName string
	for i := len(m.nodes) - 1; i >= 0; i-- {
		n := m.nodes[i]
		if n.kind == nodeInput {
			inputName = n.name
			continue
		}
		g := pending[n.name]
		if g == nil {
			continue
		}
		switch n.kind {
		case nodeLayer:
			up := n.layer.Backward(g)
			accumulate(pending, n.inputs[0], up)
		case nodeConcat:
			off := 0
			rows, _ := g.Dims()
			for _, in := range n.inputs {
				w := m.byName[in].shape.Width()
				part := mat.DenseCopyOf(g.Slice(0, rows, off, off+w))
				accumulate(pending, in, part)
				off += w
			}
		}
	}
	return pending[inputName]
}

// Snapshot deep-copies every parameter matrix, for best-epoch restore.
func (m *Model) Snapshot() []*mat.Dense {
	out := make([]*mat.Dense, len(m.params))
	for i, p := range m.params {
		out[i] = mat.DenseCopyOf(p.W)
	}
	return out
}

// Restore copies a snapshot back into the live parameters.
func (m *Model) Restore(snap []*mat.Dense) {
	for i, p := range m.params {
		p.W.Copy(snap[i])
	}
}

// ZeroGrads clears accumulated gradients before the next batch.
func (m *Model) ZeroGrads() {
	for _, p := range m.params {
		p.Grad.Zero()
	}
}

func accumulate(pending map[string]*mat.Dense, name string, g *mat.Dense) {
	if prev, ok := pending[name]; ok {
		prev.Add(prev, g)
		return
	}
	pending[name] = g
}

func hconcat(parts []*mat.Dense) *mat.Dense {
	rows, _ := parts[0].Dims()
	width := 0
	for _, p := range parts {
		_, c := p.Dims()
		width += c
	}
	out := mat.NewDense(rows, width, nil)
	off := 0
	for _, p := range parts {
		_, c := p.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < c; j++ {
				out.Set(i, off+j, p.At(i, j))
			}
		}
		off += c
	}
	return out
}
