// =============================
// Activity Recognition Pipeline
// =============================
// Orchestrates the strictly sequential stages: dimensionality reduction,
// per-class adversarial balancing, stratified cross-validation of the hybrid
// classifier, then a final holdout evaluation on the test split. Stages
// never overlap; a stage failure aborts the run with the failing stage and
// class/fold named, keeping partial results from completed folds.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mujeebjan09/Human-activity-recognition/internal/balancer"
	"github.com/mujeebjan09/Human-activity-recognition/internal/classifier"
	"github.com/mujeebjan09/Human-activity-recognition/internal/config"
	"github.com/mujeebjan09/Human-activity-recognition/internal/crossval"
	"github.com/mujeebjan09/Human-activity-recognition/internal/dataset"
	"github.com/mujeebjan09/Human-activity-recognition/internal/reduction"
	"github.com/mujeebjan09/Human-activity-recognition/internal/report"
	"github.com/mujeebjan09/Human-activity-recognition/pkg/metrics"
)

// RunReport is everything a run produces for the reporting collaborators.
type RunReport struct {
	RunID       string
	Strategy    string
	ReducedDim  int
	Balanced    dataset.ClassDistribution
	Traces      []balancer.ClassTrace
	ReducerLoss []float64 // autoencoder reconstruction trace, when learned

	CrossVal    *crossval.Summary
	CVMetrics   report.Metrics
	TestMetrics report.Metrics
	TestMatrix  *crossval.ConfusionMatrix

	Duration time.Duration
}

// Pipeline wires the stages behind one configurable entry point.
type Pipeline struct {
	cfg    *config.Config
	logger *zap.SugaredLogger

	// OnFoldCompleted forwards cross-validation progress to the caller.
	OnFoldCompleted func(fold, total int, accuracy float64)
}

// New creates a pipeline from one validated configuration.
func New(cfg *config.Config, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logger}
}

// buildReducer selects the configured reduction strategy. The importance
// variant is supervised, so it receives the training labels.
func (p *Pipeline) buildReducer(trainY []int) (reduction.Reducer, error) {
	switch p.cfg.Reduction.Strategy {
	case config.StrategyLearned:
		return reduction.NewAutoencoder(p.cfg.Reduction.Autoencoder, p.logger), nil
	case config.StrategyStatistics:
		return reduction.NewPCA(p.cfg.Reduction.VarianceThreshold), nil
	case config.StrategyImportance:
		return reduction.NewImportanceSelector(p.cfg.Reduction.Importance, trainY), nil
	}
	return nil, fmt.Errorf("unknown reduction strategy %q", p.cfg.Reduction.Strategy)
}

// Run executes the full pipeline over prepared data. The context is only
// consulted between stages; individual training loops always terminate on
// their configured epoch budgets.
func (p *Pipeline) Run(ctx context.Context, prepared *dataset.Prepared) (*RunReport, error) {
	start := time.Now()
	rep := &RunReport{
		RunID:    uuid.NewString(),
		Strategy: p.cfg.Reduction.Strategy,
	}
	classes := prepared.Encoder.Classes()
	p.logger.Infow("Starting pipeline run",
		"run_id", rep.RunID,
		"strategy", rep.Strategy,
		"train_samples", prepared.Train.Len(),
		"test_samples", prepared.Test.Len(),
		"classes", len(classes),
	)

	// Stage 1: dimensionality reduction, fit on training data only.
	reducer, err := p.buildReducer(prepared.Train.Y)
	if err != nil {
		return rep, err
	}
	if err := reducer.Fit(prepared.Train.X); err != nil {
		return rep, fmt.Errorf("reduction stage: %w", err)
	}
	reducedTrainX, err := reducer.Apply(prepared.Train.X)
	if err != nil {
		return rep, fmt.Errorf("reduction stage: %w", err)
	}
	reducedTestX, err := reducer.Apply(prepared.Test.X)
	if err != nil {
		return rep, fmt.Errorf("reduction stage (test split): %w", err)
	}
	rep.ReducedDim = reducer.OutputWidth()
	if ae, ok := reducer.(*reduction.Autoencoder); ok {
		rep.ReducerLoss = ae.LossTrace()
		if n := len(rep.ReducerLoss); n > 0 {
			metrics.EpochLoss.WithLabelValues("autoencoder").Set(rep.ReducerLoss[n-1])
		}
	}
	reducedTrain, err := dataset.New(reducedTrainX, prepared.Train.Y)
	if err != nil {
		return rep, err
	}
	reducedTest, err := dataset.New(reducedTestX, prepared.Test.Y)
	if err != nil {
		return rep, err
	}
	p.logger.Infow("Reduction stage completed", "reduced_dim", rep.ReducedDim)
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	// Stage 2: adversarial balancing of under-represented classes.
	bal := balancer.New(p.cfg.Balancer, classes, p.logger)
	balResult, err := bal.Balance(reducedTrain)
	if balResult != nil {
		rep.Traces = balResult.Traces
	}
	if err != nil {
		return rep, fmt.Errorf("balancing stage: %w", err)
	}
	augmented := balResult.Dataset
	rep.Balanced = augmented.Distribution()
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	// Stage 3: stratified cross-validation with a fresh classifier per fold.
	harness := crossval.NewHarness(p.cfg.CrossVal, classes, p.logger)
	harness.OnFoldCompleted = p.OnFoldCompleted
	factory := func(fold int) (crossval.Trainer, error) {
		trainCfg := p.cfg.Training
		trainCfg.Seed = p.cfg.Training.Seed + int64(fold)
		return classifier.New(p.cfg.Model, trainCfg, rep.ReducedDim, len(classes), p.logger)
	}
	summary, err := harness.Run(augmented, factory)
	rep.CrossVal = summary
	if summary != nil && summary.CompletedFolds > 0 {
		rep.CVMetrics, _ = report.FromConfusion(summary.Confusion)
	}
	if err != nil {
		return rep, fmt.Errorf("cross-validation stage: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	// Stage 4: holdout evaluation. A fresh classifier trained on the whole
	// augmented set, validated against the untouched test split.
	final, err := classifier.New(p.cfg.Model, p.cfg.Training, rep.ReducedDim, len(classes), p.logger)
	if err != nil {
		return rep, fmt.Errorf("holdout stage: %w", err)
	}
	if _, err := final.Train(augmented.X, augmented.Y, reducedTest.X, reducedTest.Y); err != nil {
		return rep, fmt.Errorf("holdout stage: %w", err)
	}
	preds, err := final.Predict(reducedTest.X)
	if err != nil {
		return rep, fmt.Errorf("holdout stage: %w", err)
	}
	testCM := crossval.NewConfusionMatrix(classes)
	for i, pred := range preds {
		if err := testCM.Add(reducedTest.Y[i], pred); err != nil {
			return rep, fmt.Errorf("holdout stage: %w", err)
		}
	}
	rep.TestMatrix = testCM
	rep.TestMetrics, _ = report.FromConfusion(testCM)

	rep.Duration = time.Since(start)
	p.logger.Infow("Pipeline run completed",
		"run_id", rep.RunID,
		"cv_accuracy", rep.CVMetrics.Accuracy,
		"test_accuracy", rep.TestMetrics.Accuracy,
		"duration", rep.Duration,
	)
	return rep, nil
}
