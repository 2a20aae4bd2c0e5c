// =============================
// Cross-Validation Harness
// =============================
// Drives repeated train/evaluate cycles over deterministic stratified folds
// and aggregates validation predictions into a confusion matrix. Every fold
// gets a freshly constructed classifier; parameters never survive a fold.

package crossval

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/mujeebjan09/Human-activity-recognition/internal/classifier"
	"github.com/mujeebjan09/Human-activity-recognition/internal/dataset"
	"github.com/mujeebjan09/Human-activity-recognition/pkg/metrics"
)

// Config holds the partitioning settings.
type Config struct {
	Folds int   `json:"folds" mapstructure:"folds"`
	Seed  int64 `json:"seed" mapstructure:"seed"`
}

// DefaultConfig returns the usual 5-fold split.
func DefaultConfig() Config {
	return Config{Folds: 5, Seed: 42}
}

// Trainer is the per-fold model contract: train on one slice, predict on
// another. Implemented by classifier.Classifier.
type Trainer interface {
	Train(trainX *mat.Dense, trainY []int, valX *mat.Dense, valY []int) (*classifier.History, error)
	Predict(x *mat.Dense) ([]int, error)
}

// Factory constructs a freshly initialized Trainer for one fold. Reusing a
// previous fold's trained instance is a correctness violation, so the
// harness only ever accepts a constructor.
type Factory func(fold int) (Trainer, error)

// Summary aggregates the run: the confusion matrix over all validation
// predictions, per-fold accuracies and per-fold training histories. When a
// run aborts mid-way the summary still carries the completed folds.
type Summary struct {
	Confusion      *ConfusionMatrix
	FoldAccuracies []float64
	Histories      []*classifier.History
	CompletedFolds int
}

// Harness runs stratified cross-validation over a labeled dataset.
type Harness struct {
	cfg     Config
	classes []string
	logger  *zap.SugaredLogger

	// OnFoldCompleted, when set, observes fold progress.
	OnFoldCompleted func(fold, total int, accuracy float64)
}

// NewHarness creates a harness over the label alphabet.
func NewHarness(cfg Config, classes []string, logger *zap.SugaredLogger) *Harness {
	return &Harness{cfg: cfg, classes: classes, logger: logger}
}

// Run partitions the dataset, trains one fresh classifier per fold and
// accumulates validation predictions. Completed folds remain in the summary
// even when a later fold fails.
func (h *Harness) Run(ds *dataset.Dataset, factory Factory) (*Summary, error) {
	folds, err := StratifiedKFold(ds.Y, h.cfg.Folds, h.cfg.Seed)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Confusion: NewConfusionMatrix(h.classes)}
	if err := checkFolds(folds, ds.Y, h.classes); err != nil {
		return summary, err
	}

	h.logger.Infow("Starting stratified cross-validation",
		"folds", h.cfg.Folds,
		"samples", ds.Len(),
		"classes", len(h.classes),
	)

	for f, fold := range folds {
		start := time.Now()
		trainSet := ds.Subset(fold.Train)
		valSet := ds.Subset(fold.Val)

		model, err := factory(f)
		if err != nil {
			return summary, fmt.Errorf("fold %d: construct classifier: %w", f, err)
		}
		hist, err := model.Train(trainSet.X, trainSet.Y, valSet.X, valSet.Y)
		if err != nil {
			return summary, fmt.Errorf("fold %d: training: %w", f, err)
		}
		preds, err := model.Predict(valSet.X)
		if err != nil {
			return summary, fmt.Errorf("fold %d: evaluation: %w", f, err)
		}

		correct := 0
		for i, p := range preds {
			if err := summary.Confusion.Add(valSet.Y[i], p); err != nil {
				return summary, fmt.Errorf("fold %d: %w", f, err)
			}
			if p == valSet.Y[i] {
				correct++
			}
		}
		acc := float64(correct) / float64(len(preds))
		summary.FoldAccuracies = append(summary.FoldAccuracies, acc)
		summary.Histories = append(summary.Histories, hist)
		summary.CompletedFolds++

		elapsed := time.Since(start)
		metrics.FoldDuration.Observe(elapsed.Seconds())
		metrics.FoldAccuracy.WithLabelValues(strconv.Itoa(f)).Set(acc)
		h.logger.Infow("Fold completed",
			"fold", f+1,
			"accuracy", acc,
			"best_epoch", hist.BestEpoch+1,
			"early_stopped", hist.Stopped,
			"duration", elapsed,
		)
		if h.OnFoldCompleted != nil {
			h.OnFoldCompleted(f+1, len(folds), acc)
		}
	}
	return summary, nil
}
