package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mujeebjan09/Human-activity-recognition/internal/config"
	"github.com/mujeebjan09/Human-activity-recognition/internal/dataset"
	"github.com/mujeebjan09/Human-activity-recognition/internal/pipeline"
	"github.com/mujeebjan09/Human-activity-recognition/internal/report"
	"github.com/mujeebjan09/Human-activity-recognition/internal/results"
	"github.com/mujeebjan09/Human-activity-recognition/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zapLogger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	// Load and prepare the two tabular files. Encoding table and scaler are
	// fit on the training split only.
	train, err := dataset.LoadCSV(cfg.Data.TrainPath, cfg.Data.LabelColumn, cfg.Data.SubjectColumn)
	if err != nil {
		zapLogger.Fatal("Failed to load training data", zap.Error(err))
	}
	test, err := dataset.LoadCSV(cfg.Data.TestPath, cfg.Data.LabelColumn, cfg.Data.SubjectColumn)
	if err != nil {
		zapLogger.Fatal("Failed to load test data", zap.Error(err))
	}
	prepared, err := dataset.Prepare(train, test, cfg.Data.SmoothWindow)
	if err != nil {
		zapLogger.Fatal("Failed to prepare data", zap.Error(err))
	}

	// Fold progress display.
	pw := progress.NewWriter()
	pw.SetAutoStop(true)
	go pw.Render()
	tracker := &progress.Tracker{
		Message: "cross-validation folds",
		Total:   int64(cfg.CrossVal.Folds),
		Units:   progress.UnitsDefault,
	}
	pw.AppendTracker(tracker)

	p := pipeline.New(cfg, sugar)
	p.OnFoldCompleted = func(fold, total int, accuracy float64) {
		tracker.Increment(1)
	}

	rep, runErr := p.Run(context.Background(), prepared)
	pw.Stop()

	// Completed folds are still reported when a later stage failed.
	if rep != nil && rep.CrossVal != nil && rep.CrossVal.CompletedFolds > 0 {
		fmt.Println(report.Render(rep.CrossVal.Confusion, rep.CrossVal.FoldAccuracies))
	}
	if rep != nil && rep.TestMatrix != nil {
		fmt.Println("=== Holdout Test Report ===")
		fmt.Println(report.Render(rep.TestMatrix, nil))
	}
	if runErr != nil {
		zapLogger.Fatal("Pipeline run failed", zap.Error(runErr))
	}

	if cfg.Results.Path != "" {
		store, err := results.Open(cfg.Results.Path)
		if err != nil {
			zapLogger.Fatal("Failed to open results store", zap.Error(err))
		}
		if err := store.SaveRun(rep); err != nil {
			zapLogger.Fatal("Failed to record run", zap.Error(err))
		}
		sugar.Infow("Run recorded", "run_id", rep.RunID, "path", cfg.Results.Path)
	}
}
