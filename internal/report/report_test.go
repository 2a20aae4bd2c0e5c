package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mujeebjan09/Human-activity-recognition/internal/crossval"
)

func knownMatrix(t *testing.T) *crossval.ConfusionMatrix {
	t.Helper()
	cm := crossval.NewConfusionMatrix([]string{"WALKING", "SITTING"})
	// WALKING: 8 right, 2 confused with SITTING
	// SITTING: 5 right, 5 confused with WALKING
	add := func(tl, pl, n int) {
		for i := 0; i < n; i++ {
			require.NoError(t, cm.Add(tl, pl))
		}
	}
	add(0, 0, 8)
	add(0, 1, 2)
	add(1, 1, 5)
	add(1, 0, 5)
	return cm
}

func TestFromConfusion(t *testing.T) {
	m, perClass := FromConfusion(knownMatrix(t))

	assert.InDelta(t, 13.0/20, m.Accuracy, 1e-12)

	// WALKING: precision 8/13, recall 8/10; SITTING: precision 5/7, recall 5/10
	require.Len(t, perClass, 2)
	assert.InDelta(t, 8.0/13, perClass[0].Precision, 1e-12)
	assert.InDelta(t, 0.8, perClass[0].Recall, 1e-12)
	assert.Equal(t, 10, perClass[0].Support)
	assert.InDelta(t, 5.0/7, perClass[1].Precision, 1e-12)
	assert.InDelta(t, 0.5, perClass[1].Recall, 1e-12)

	assert.InDelta(t, (8.0/13+5.0/7)/2, m.MacroPrecision, 1e-12)
	assert.InDelta(t, (0.8+0.5)/2, m.MacroRecall, 1e-12)

	f1 := func(p, r float64) float64 { return 2 * p * r / (p + r) }
	assert.InDelta(t, (f1(8.0/13, 0.8)+f1(5.0/7, 0.5))/2, m.MacroF1, 1e-12)
}

func TestFromConfusionEmptyClass(t *testing.T) {
	cm := crossval.NewConfusionMatrix([]string{"A", "B", "C"})
	require.NoError(t, cm.Add(0, 0))

	m, perClass := FromConfusion(cm)
	assert.InDelta(t, 1.0, m.Accuracy, 1e-12)
	assert.Equal(t, 0, perClass[2].Support)
	assert.Zero(t, perClass[2].Precision, "no predictions, no division by zero")
	assert.Zero(t, perClass[2].F1)
}

func TestFoldSpread(t *testing.T) {
	mean, stddev := FoldSpread([]float64{0.9, 0.92, 0.88, 0.9, 0.9})
	assert.InDelta(t, 0.9, mean, 1e-12)
	assert.Greater(t, stddev, 0.0)

	mean, stddev = FoldSpread(nil)
	assert.Zero(t, mean)
	assert.Zero(t, stddev)
}

func TestRender(t *testing.T) {
	out := Render(knownMatrix(t), []float64{0.7, 0.6})
	assert.Contains(t, out, "Accuracy:        0.6500")
	assert.Contains(t, out, "WALKING")
	assert.Contains(t, out, "SITTING")
	assert.Contains(t, out, "over 2 folds")
	assert.Contains(t, out, "Confusion matrix")
}
