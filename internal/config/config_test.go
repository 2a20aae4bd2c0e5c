package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StrategyLearned, cfg.Reduction.Strategy)
	assert.Equal(t, 125, cfg.Reduction.Autoencoder.TargetDim)
	assert.Equal(t, 5, cfg.CrossVal.Folds)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"UnknownStrategy", func(c *Config) { c.Reduction.Strategy = "random" }},
		{"ThresholdTooHigh", func(c *Config) {
			c.Reduction.Strategy = StrategyStatistics
			c.Reduction.VarianceThreshold = 1.5
		}},
		{"ZeroTargetDim", func(c *Config) { c.Reduction.Autoencoder.TargetDim = 0 }},
		{"SingleFold", func(c *Config) { c.CrossVal.Folds = 1 }},
		{"NoEpochs", func(c *Config) { c.Training.Epochs = 0 }},
		{"NoPatience", func(c *Config) { c.Training.Patience = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
log_level: debug
reduction:
  strategy: statistical
  variance_threshold: 0.85
cross_validation:
  folds: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, StrategyStatistics, cfg.Reduction.Strategy)
	assert.InDelta(t, 0.85, cfg.Reduction.VarianceThreshold, 1e-12)
	assert.Equal(t, 3, cfg.CrossVal.Folds)
	// untouched keys keep their defaults
	assert.Equal(t, "Activity", cfg.Data.LabelColumn)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
