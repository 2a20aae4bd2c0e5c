// =============================
// Experiment Result Store
// =============================
// Optional SQLite-backed record of run summaries for experiment tracking.
// Only scalar metrics and per-fold outcomes are stored; trained models are
// never persisted.

package results

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mujeebjan09/Human-activity-recognition/internal/pipeline"
)

// RunRecord is one pipeline run's scalar summary.
type RunRecord struct {
	ID           string    `gorm:"primaryKey"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	Strategy     string    `gorm:"index"`
	ReducedDim   int
	Folds        int
	CVAccuracy   float64
	CVMacroF1    float64
	TestAccuracy float64
	TestMacroF1  float64
	DurationMS   int64
}

// FoldRecord is one fold's outcome within a run.
type FoldRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	RunID    string `gorm:"index"`
	Fold     int
	Accuracy float64
}

// Store persists run summaries to a SQLite file.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the results database and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open results store: %w", err)
	}
	if err := db.AutoMigrate(&RunRecord{}, &FoldRecord{}); err != nil {
		return nil, fmt.Errorf("migrate results store: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRun records one completed run and its folds in a single transaction.
func (s *Store) SaveRun(rep *pipeline.RunReport) error {
	rec := RunRecord{
		ID:           rep.RunID,
		Strategy:     rep.Strategy,
		ReducedDim:   rep.ReducedDim,
		CVAccuracy:   rep.CVMetrics.Accuracy,
		CVMacroF1:    rep.CVMetrics.MacroF1,
		TestAccuracy: rep.TestMetrics.Accuracy,
		TestMacroF1:  rep.TestMetrics.MacroF1,
		DurationMS:   rep.Duration.Milliseconds(),
	}
	var folds []FoldRecord
	if rep.CrossVal != nil {
		rec.Folds = rep.CrossVal.CompletedFolds
		for i, acc := range rep.CrossVal.FoldAccuracies {
			folds = append(folds, FoldRecord{RunID: rep.RunID, Fold: i, Accuracy: acc})
		}
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("save run record: %w", err)
		}
		if len(folds) > 0 {
			if err := tx.Create(&folds).Error; err != nil {
				return fmt.Errorf("save fold records: %w", err)
			}
		}
		return nil
	})
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := s.db.Order("created_at desc").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
