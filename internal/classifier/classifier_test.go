package classifier

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"

	"github.com/mujeebjan09/Human-activity-recognition/internal/nn"
)

func smallModelConfig() ModelConfig {
	return ModelConfig{
		ConvFilters:    []int{4, 8},
		KernelSize:     3,
		AttentionDim:   4,
		AttentionHeads: 2,
		HiddenUnits:    16,
	}
}

// separableData builds two well-separated clusters of the given width.
func separableData(rows, width int, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(rows, width, nil)
	y := make([]int, rows)
	for i := 0; i < rows; i++ {
		y[i] = i % 2
		center := -0.6
		if y[i] == 1 {
			center = 0.6
		}
		for j := 0; j < width; j++ {
			x.Set(i, j, center+rng.NormFloat64()*0.1)
		}
	}
	return x, y
}

func TestHybridGraphShapes(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	c, err := New(smallModelConfig(), DefaultTrainConfig(), 8, 3, logger)
	require.NoError(t, err)

	// conv branch: 8 -> pool -> 4 -> pool -> 2 positions x 8 filters
	merge, ok := c.Model().StageShape("merge")
	require.True(t, ok)
	assert.Equal(t, 2*8+4, merge.Width(), "conv flatten plus pooled attention channels")
	assert.Equal(t, 3, c.Model().OutShape().Width())
}

func TestClassifierRejectsWidthMismatch(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	c, err := New(smallModelConfig(), DefaultTrainConfig(), 40, 6, logger)
	require.NoError(t, err)

	x := mat.NewDense(4, 50, nil)
	_, err = c.Predict(x)
	require.Error(t, err)
	var dim *nn.DimensionMismatchError
	require.ErrorAs(t, err, &dim)
	assert.Equal(t, 50, dim.Got)
	assert.Equal(t, 40, dim.Want)

	_, err = c.Train(x, []int{0, 1, 2, 3}, x, []int{0, 1, 2, 3})
	require.ErrorAs(t, err, &dim, "training input is checked before any epoch runs")
}

func TestClassifierLearnsSeparableClasses(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	trainCfg := TrainConfig{Epochs: 30, BatchSize: 16, LearningRate: 5e-3, Patience: 8, Seed: 7}
	c, err := New(smallModelConfig(), trainCfg, 8, 2, logger)
	require.NoError(t, err)

	trainX, trainY := separableData(64, 8, 1)
	valX, valY := separableData(32, 8, 2)

	hist, err := c.Train(trainX, trainY, valX, valY)
	require.NoError(t, err)

	require.NotEmpty(t, hist.TrainLoss)
	assert.Len(t, hist.ValLoss, len(hist.TrainLoss))
	assert.Len(t, hist.ValAcc, len(hist.TrainLoss))
	assert.LessOrEqual(t, len(hist.TrainLoss), trainCfg.Epochs)
	assert.Less(t, hist.BestEpoch, len(hist.TrainLoss))
	assert.Less(t, hist.TrainLoss[len(hist.TrainLoss)-1], hist.TrainLoss[0],
		"loss should fall on separable data")

	preds, err := c.Predict(valX)
	require.NoError(t, err)
	correct := 0
	for i, p := range preds {
		if p == valY[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, float64(correct)/float64(len(preds)), 0.8)
}

func TestFreshClassifiersAreIndependent(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	cfg := smallModelConfig()
	trainCfg := TrainConfig{Epochs: 2, BatchSize: 16, LearningRate: 1e-3, Patience: 3, Seed: 7}

	a, err := New(cfg, trainCfg, 8, 2, logger)
	require.NoError(t, err)
	b, err := New(cfg, trainCfg, 8, 2, logger)
	require.NoError(t, err)

	trainX, trainY := separableData(32, 8, 3)
	_, err = a.Train(trainX, trainY, trainX, trainY)
	require.NoError(t, err)

	// Both start from the same seed, so a difference now proves a's
	// training never touched b's parameters.
	pa := a.Model().Params()[0].W.At(0, 0)
	pb := b.Model().Params()[0].W.At(0, 0)
	assert.NotEqual(t, pa, pb, "trained and fresh instances hold distinct parameters")
}
