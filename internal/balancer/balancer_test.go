package balancer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"

	"github.com/mujeebjan09/Human-activity-recognition/internal/dataset"
)

func testConfig() Config {
	return Config{
		NoiseDim:         4,
		HiddenDim:        8,
		Epochs:           5,
		BatchSize:        16,
		LearningRate:     2e-4,
		Seed:             7,
		DivergenceWindow: 3,
		MaxRetries:       1,
	}
}

// imbalancedDataset builds class clusters with the given per-class counts.
func imbalancedDataset(t *testing.T, counts []int, width int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	total := 0
	for _, c := range counts {
		total += c
	}
	x := mat.NewDense(total, width, nil)
	y := make([]int, total)
	row := 0
	for label, c := range counts {
		for i := 0; i < c; i++ {
			y[row] = label
			for j := 0; j < width; j++ {
				x.Set(row, j, float64(label)*3+rng.NormFloat64()*0.5)
			}
			row++
		}
	}
	ds, err := dataset.New(x, y)
	require.NoError(t, err)
	return ds
}

func TestBalanceFillsDeficitsExactly(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	classes := []string{"SITTING", "STANDING", "WALKING"}
	// SITTING 80, STANDING 60, WALKING 100 -> deficits 20, 40, 0
	ds := imbalancedDataset(t, []int{80, 60, 100}, 4)

	b := New(testConfig(), classes, logger)
	res, err := b.Balance(ds)
	require.NoError(t, err)

	dist := res.Dataset.Distribution()
	assert.Equal(t, 100, dist[0])
	assert.Equal(t, 100, dist[1])
	assert.Equal(t, 100, dist[2])
	assert.Equal(t, 300, res.Dataset.Len())

	// the majority class trained no balancer at all
	require.Len(t, res.Traces, 2)
	assert.Equal(t, "SITTING", res.Traces[0].Class)
	assert.Equal(t, 20, res.Traces[0].Generated)
	assert.Equal(t, "STANDING", res.Traces[1].Class)
	assert.Equal(t, 40, res.Traces[1].Generated)
	for _, tr := range res.Traces {
		assert.NotEmpty(t, tr.GenLoss)
		assert.Len(t, tr.DiscLoss, len(tr.GenLoss))
	}

	// synthetic rows carry the balanced class's own label
	assert.Equal(t, 0, res.Dataset.Y[ds.Len()], "first appended block is SITTING")
	assert.Equal(t, 1, res.Dataset.Y[res.Dataset.Len()-1], "last appended block is STANDING")
}

func TestBalanceAlreadyBalanced(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	ds := imbalancedDataset(t, []int{40, 40}, 3)

	b := New(testConfig(), []string{"A", "B"}, logger)
	res, err := b.Balance(ds)
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), res.Dataset.Len(), "nothing to generate")
	assert.Empty(t, res.Traces)
}

func TestGANSamplesStayBounded(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	rng := rand.New(rand.NewSource(5))
	real := mat.NewDense(32, 4, nil)
	for i := 0; i < 32; i++ {
		for j := 0; j < 4; j++ {
			real.Set(i, j, rng.Float64()*2-1)
		}
	}

	g, err := newGAN(testConfig(), 4, 7, logger)
	require.NoError(t, err)
	require.NoError(t, g.train(real, "WALKING"))

	out, err := g.sample(25)
	require.NoError(t, err)
	rows, cols := out.Dims()
	assert.Equal(t, 25, rows)
	assert.Equal(t, 4, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := out.At(i, j)
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestGANDivergenceDetection(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	rng := rand.New(rand.NewSource(6))
	real := mat.NewDense(32, 4, nil)
	for i := 0; i < 32; i++ {
		for j := 0; j < 4; j++ {
			real.Set(i, j, rng.Float64()*2-1)
		}
	}

	cfg := testConfig()
	cfg.Epochs = 10
	g, err := newGAN(cfg, 4, 7, logger)
	require.NoError(t, err)

	// Poison a discriminator weight so every checkpoint loss is non-finite.
	// The window requires three consecutive bad checkpoints before failing.
	g.disc.Params()[0].W.Set(0, 0, math.NaN())

	err = g.train(real, "WALKING")
	require.Error(t, err)
	var div *DivergenceError
	require.ErrorAs(t, err, &div)
	assert.Equal(t, "WALKING", div.Class)
	assert.Equal(t, cfg.DivergenceWindow, div.Checkpoint, "failure surfaces at the end of the window")
	assert.Contains(t, div.Error(), "WALKING")
}

func TestBalanceClampsBatchToSmallClass(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	ds := imbalancedDataset(t, []int{30, 10}, 4)

	cfg := testConfig()
	cfg.BatchSize = 64 // larger than the 10-row class subset
	cfg.Epochs = 2

	b := New(cfg, []string{"A", "B"}, logger)
	res, err := b.Balance(ds)
	require.NoError(t, err, "clamped batches still train")
	assert.Equal(t, 60, res.Dataset.Len())
}
