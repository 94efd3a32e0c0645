package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridia/clausewise/core"
)

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
language: english
clustering:
  threshold: 0.9
  window_size: 100
waterfall:
  min_frequency: 25
  keyword_rules:
    - name: terrorism-pool
      keywords: [terrorism]
      action: keep
      confidence: high
      reason: mandatory pool clause
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "english", cfg.Language)
		assert.Equal(t, 0.9, cfg.Clustering.Threshold)
		assert.Equal(t, 100, cfg.Clustering.WindowSize)
		assert.Equal(t, 25, cfg.Waterfall.MinFrequency)

		// Untouched sections keep their defaults.
		assert.Equal(t, 0.50, cfg.Similarity.LowExit)

		rules, err := cfg.KeywordRules()
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, core.ActionKeep, rules[0].Action)
		assert.Equal(t, core.ConfidenceHigh, rules[0].Confidence)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("rejects bad weights", func(t *testing.T) {
		path := writeConfig(t, `
similarity:
  weights:
    literal: 0.5
    keyword: 0.6
`)
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrWeightSum)
	})
}

func TestValidate(t *testing.T) {
	t.Run("unknown language", func(t *testing.T) {
		cfg := Default()
		cfg.Language = "klingon"
		assert.ErrorIs(t, cfg.Validate(), ErrUnknownLanguage)
	})

	t.Run("threshold out of range is not clamped", func(t *testing.T) {
		cfg := Default()
		cfg.Clustering.Threshold = 1.5
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidRange)
	})

	t.Run("inverted exits", func(t *testing.T) {
		cfg := Default()
		cfg.Similarity.LowExit = 0.95
		assert.ErrorIs(t, cfg.Validate(), ErrBandOrder)
	})

	t.Run("unknown signal name", func(t *testing.T) {
		cfg := Default()
		cfg.Similarity.Weights = map[string]float64{"vibes": 1.0}
		assert.ErrorIs(t, cfg.Validate(), ErrUnknownSignal)
	})

	t.Run("unknown action in keyword rule", func(t *testing.T) {
		cfg := Default()
		cfg.Waterfall.KeywordRules = []KeywordRule{
			{Name: "x", Keywords: []string{"a"}, Action: "obliterate", Confidence: "high"},
		}
		assert.ErrorIs(t, cfg.Validate(), ErrUnknownAction)
	})
}

func TestSignalWeights(t *testing.T) {
	cfg := Default()
	weights, err := cfg.SignalWeights()
	require.NoError(t, err)

	var sum float64
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 0.30, weights[core.SignalLiteral])
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
