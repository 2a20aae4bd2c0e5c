// =============================
// Pipeline Configuration
// =============================
// One configuration structure covers every pipeline variant: reduction
// strategy, target dimensionality, epoch budgets, early-stopping patience
// and fold count. Variants are configuration choices, never duplicated
// pipelines.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mujeebjan09/Human-activity-recognition/internal/balancer"
	"github.com/mujeebjan09/Human-activity-recognition/internal/classifier"
	"github.com/mujeebjan09/Human-activity-recognition/internal/crossval"
	"github.com/mujeebjan09/Human-activity-recognition/internal/reduction"
)

// Reduction strategies selectable per run.
const (
	StrategyLearned    = "learned"     // autoencoder
	StrategyStatistics = "statistical" // variance-threshold PCA
	StrategyImportance = "importance"  // ensemble top-K feature selection
)

// DataConfig locates and describes the two tabular input files.
type DataConfig struct {
	TrainPath     string `json:"train_path" mapstructure:"train_path"`
	TestPath      string `json:"test_path" mapstructure:"test_path"`
	LabelColumn   string `json:"label_column" mapstructure:"label_column"`
	SubjectColumn string `json:"subject_column" mapstructure:"subject_column"`
	SmoothWindow  int    `json:"smooth_window" mapstructure:"smooth_window"`
}

// ReductionConfig selects and parameterizes the reduction strategy.
type ReductionConfig struct {
	Strategy          string                      `json:"strategy" mapstructure:"strategy"`
	VarianceThreshold float64                     `json:"variance_threshold" mapstructure:"variance_threshold"`
	Autoencoder       reduction.AutoencoderConfig `json:"autoencoder" mapstructure:"autoencoder"`
	Importance        reduction.ImportanceConfig  `json:"importance" mapstructure:"importance"`
}

// ResultsConfig controls the optional experiment-tracking store.
type ResultsConfig struct {
	Path string `json:"path" mapstructure:"path"` // empty disables persistence
}

// Config is the complete pipeline configuration.
type Config struct {
	LogLevel  string                 `json:"log_level" mapstructure:"log_level"`
	Data      DataConfig             `json:"data" mapstructure:"data"`
	Reduction ReductionConfig        `json:"reduction" mapstructure:"reduction"`
	Balancer  balancer.Config        `json:"balancer" mapstructure:"balancer"`
	Model     classifier.ModelConfig `json:"model" mapstructure:"model"`
	Training  classifier.TrainConfig `json:"training" mapstructure:"training"`
	CrossVal  crossval.Config        `json:"cross_validation" mapstructure:"cross_validation"`
	Results   ResultsConfig          `json:"results" mapstructure:"results"`
}

// DefaultConfig returns the configuration used for the UCI-style activity
// dataset layout.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Data: DataConfig{
			TrainPath:     "data/train.csv",
			TestPath:      "data/test.csv",
			LabelColumn:   "Activity",
			SubjectColumn: "subject",
			SmoothWindow:  1,
		},
		Reduction: ReductionConfig{
			Strategy:          StrategyLearned,
			VarianceThreshold: 0.90,
			Autoencoder:       reduction.DefaultAutoencoderConfig(),
			Importance:        reduction.DefaultImportanceConfig(),
		},
		Balancer: balancer.DefaultConfig(),
		Model:    classifier.DefaultModelConfig(),
		Training: classifier.DefaultTrainConfig(),
		CrossVal: crossval.DefaultConfig(),
	}
}

// LoadConfig reads config.yaml (working directory or ./config) merged with
// HAR_-prefixed environment overrides on top of the defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	v.SetEnvPrefix("HAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations no pipeline variant can run with.
func (c *Config) Validate() error {
	switch c.Reduction.Strategy {
	case StrategyLearned, StrategyStatistics, StrategyImportance:
	default:
		return fmt.Errorf("unknown reduction strategy %q", c.Reduction.Strategy)
	}
	if c.Reduction.Strategy == StrategyStatistics &&
		(c.Reduction.VarianceThreshold <= 0 || c.Reduction.VarianceThreshold > 1) {
		return fmt.Errorf("variance threshold %v outside (0,1]", c.Reduction.VarianceThreshold)
	}
	if c.Reduction.Strategy == StrategyLearned && c.Reduction.Autoencoder.TargetDim <= 0 {
		return fmt.Errorf("autoencoder target dimensionality must be positive")
	}
	if c.CrossVal.Folds < 2 {
		return fmt.Errorf("fold count %d must be at least 2", c.CrossVal.Folds)
	}
	if c.Balancer.Epochs <= 0 || c.Training.Epochs <= 0 {
		return fmt.Errorf("epoch budgets must be positive")
	}
	if c.Training.Patience <= 0 {
		return fmt.Errorf("early-stopping patience must be positive")
	}
	return nil
}
