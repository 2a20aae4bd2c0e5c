package reduction

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"
)

// randomMatrix fills a rows×cols matrix from the given source. The first
// columns carry most of the variance so PCA has something to rank.
func randomMatrix(rows, cols int, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			scale := 1.0
			if j < 2 {
				scale = 10.0
			}
			out.Set(i, j, rng.NormFloat64()*scale)
		}
	}
	return out
}

func TestPCA(t *testing.T) {
	x := randomMatrix(60, 6, 1)

	t.Run("ThresholdSelectsDominantComponents", func(t *testing.T) {
		p := NewPCA(0.90)
		require.NoError(t, p.Fit(x))
		assert.Greater(t, p.OutputWidth(), 0)
		assert.LessOrEqual(t, p.OutputWidth(), 6)
		// two columns carry ~100x the variance of the rest
		assert.LessOrEqual(t, p.OutputWidth(), 3)

		out, err := p.Apply(x)
		require.NoError(t, err)
		rows, cols := out.Dims()
		assert.Equal(t, 60, rows)
		assert.Equal(t, p.OutputWidth(), cols)
	})

	t.Run("FullThresholdKeepsEverything", func(t *testing.T) {
		p := NewPCA(1.0)
		require.NoError(t, p.Fit(x))
		assert.Equal(t, 6, p.OutputWidth())
	})

	t.Run("WidthMismatchOnApply", func(t *testing.T) {
		p := NewPCA(0.90)
		require.NoError(t, p.Fit(x))
		_, err := p.Apply(mat.NewDense(4, 5, nil))
		var dim *DimensionMismatchError
		require.ErrorAs(t, err, &dim)
		assert.Equal(t, 5, dim.Got)
		assert.Equal(t, 6, dim.Want)
	})

	t.Run("ApplyBeforeFit", func(t *testing.T) {
		p := NewPCA(0.90)
		_, err := p.Apply(x)
		assert.Error(t, err)
	})
}

func TestAutoencoder(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	cfg := AutoencoderConfig{
		TargetDim:    3,
		HiddenDim:    8,
		Epochs:       15,
		BatchSize:    16,
		LearningRate: 1e-2,
		Seed:         7,
	}
	x := randomMatrix(48, 6, 2)

	a := NewAutoencoder(cfg, logger)
	require.NoError(t, a.Fit(x))

	trace := a.LossTrace()
	require.Len(t, trace, cfg.Epochs)
	assert.Less(t, trace[len(trace)-1], trace[0], "reconstruction loss should fall")

	out, err := a.Apply(x)
	require.NoError(t, err)
	rows, cols := out.Dims()
	assert.Equal(t, 48, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 3, a.OutputWidth())

	t.Run("WidthMismatchOnApply", func(t *testing.T) {
		_, err := a.Apply(mat.NewDense(2, 7, nil))
		var dim *DimensionMismatchError
		require.ErrorAs(t, err, &dim)
	})

	t.Run("DeterministicEncoding", func(t *testing.T) {
		b := NewAutoencoder(cfg, logger)
		require.NoError(t, b.Fit(x))
		other, err := b.Apply(x)
		require.NoError(t, err)
		assert.InDelta(t, out.At(0, 0), other.At(0, 0), 1e-12, "same seed must reproduce the encoding")
	})
}

func TestImportanceSelector(t *testing.T) {
	// One informative column decides the label, the rest is noise.
	rng := rand.New(rand.NewSource(3))
	rows := 120
	x := mat.NewDense(rows, 5, nil)
	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		labels[i] = i % 2
		for j := 0; j < 5; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
		x.Set(i, 2, float64(labels[i])*4+rng.NormFloat64()*0.1)
	}

	cfg := ImportanceConfig{TopK: 2, Trees: 40, MaxDepth: 4, MinLeaf: 5, Seed: 7}
	s := NewImportanceSelector(cfg, labels)
	require.NoError(t, s.Fit(x))

	assert.Contains(t, s.SelectedFeatures(), 2, "the informative column must rank into the top features")

	out, err := s.Apply(x)
	require.NoError(t, err)
	_, cols := out.Dims()
	assert.Equal(t, 2, cols)

	t.Run("TopKBounds", func(t *testing.T) {
		bad := NewImportanceSelector(ImportanceConfig{TopK: 9, Trees: 5, MaxDepth: 3, MinLeaf: 2, Seed: 1}, labels)
		assert.Error(t, bad.Fit(x))
	})

	t.Run("LabelCountMismatch", func(t *testing.T) {
		bad := NewImportanceSelector(cfg, labels[:10])
		assert.Error(t, bad.Fit(x))
	})
}
