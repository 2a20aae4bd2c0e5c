package results

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mujeebjan09/Human-activity-recognition/internal/crossval"
	"github.com/mujeebjan09/Human-activity-recognition/internal/pipeline"
	"github.com/mujeebjan09/Human-activity-recognition/internal/report"
)

func TestStoreSaveAndList(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)

	rep := &pipeline.RunReport{
		RunID:       uuid.NewString(),
		Strategy:    "statistical",
		ReducedDim:  40,
		CVMetrics:   report.Metrics{Accuracy: 0.91, MacroF1: 0.90},
		TestMetrics: report.Metrics{Accuracy: 0.89, MacroF1: 0.88},
		CrossVal: &crossval.Summary{
			FoldAccuracies: []float64{0.9, 0.92},
			CompletedFolds: 2,
		},
		Duration: 42 * time.Second,
	}
	require.NoError(t, store.SaveRun(rep))

	runs, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rep.RunID, runs[0].ID)
	assert.Equal(t, "statistical", runs[0].Strategy)
	assert.Equal(t, 2, runs[0].Folds)
	assert.InDelta(t, 0.91, runs[0].CVAccuracy, 1e-12)
	assert.Equal(t, int64(42000), runs[0].DurationMS)

	// primary key collision on a duplicate run id
	assert.Error(t, store.SaveRun(rep))
}
