package reduction

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA projects features onto the orthogonal variance-ranked components,
// keeping the minimal number whose cumulative explained variance meets the
// configured threshold.
type PCA struct {
	threshold float64

	inWidth    int
	components *mat.Dense // inWidth × kept
	mean       []float64
	kept       int
	explained  []float64
}

// NewPCA creates a variance-threshold projection, e.g. threshold 0.90.
func NewPCA(threshold float64) *PCA {
	return &PCA{threshold: threshold}
}

// OutputWidth returns the number of retained components. Valid after Fit.
func (p *PCA) OutputWidth() int { return p.kept }

// ExplainedVariance returns the per-component variance ratios retained.
func (p *PCA) ExplainedVariance() []float64 { return p.explained }

// Fit computes the principal components of the training matrix and selects
// the retained count from the cumulative explained-variance threshold.
func (p *PCA) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	if rows < 2 {
		return fmt.Errorf("pca: need at least 2 rows, got %d", rows)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return fmt.Errorf("pca: principal component decomposition failed")
	}
	variances := pc.VarsTo(nil)
	total := floats.Sum(variances)
	if total == 0 {
		return fmt.Errorf("pca: zero total variance")
	}

	kept, cum := 0, 0.0
	ratios := make([]float64, 0, len(variances))
	for _, v := range variances {
		cum += v / total
		ratios = append(ratios, v/total)
		kept++
		if cum >= p.threshold {
			break
		}
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	p.components = mat.DenseCopyOf(vecs.Slice(0, cols, 0, kept))
	p.kept = kept
	p.explained = ratios
	p.inWidth = cols

	p.mean = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		p.mean[j] = stat.Mean(col, nil)
	}
	return nil
}

// Apply centers a matrix with the training means and projects it onto the
// retained components.
func (p *PCA) Apply(x *mat.Dense) (*mat.Dense, error) {
	if p.components == nil {
		return nil, fmt.Errorf("pca: Apply before Fit")
	}
	rows, cols := x.Dims()
	if cols != p.inWidth {
		return nil, &DimensionMismatchError{Stage: "pca", Got: cols, Want: p.inWidth}
	}
	centered := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			centered.Set(i, j, x.At(i, j)-p.mean[j])
		}
	}
	out := mat.NewDense(rows, p.kept, nil)
	out.Mul(centered, p.components)
	return out, nil
}
