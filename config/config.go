// Copyright 2025 Veridia Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates job configuration.
//
// All numeric thresholds of the analysis are business-tunable and live
// here rather than in code. Validation is strict and fails fast: weights
// that do not sum to 1.0 or thresholds outside [0,1] reject the whole
// configuration instead of being clamped.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/waterfall"
)

// weightSumTolerance is the permitted deviation of the weight sum from 1.0.
const weightSumTolerance = 1e-9

var (
	// ErrUnknownSignal indicates a weight for a signal name that does not exist.
	ErrUnknownSignal = errors.New("unknown similarity signal")

	// ErrWeightSum indicates signal weights that do not sum to 1.0.
	ErrWeightSum = errors.New("signal weights must sum to 1.0")

	// ErrInvalidRange indicates a threshold outside [0,1].
	ErrInvalidRange = errors.New("threshold must be between 0 and 1")

	// ErrBandOrder indicates band bounds that are not ordered low < high.
	ErrBandOrder = errors.New("band bounds must satisfy low < high")

	// ErrUnknownLanguage indicates an unsupported normalizer language.
	ErrUnknownLanguage = errors.New("unsupported language")

	// ErrUnknownAction indicates a keyword rule naming an unknown action.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownConfidence indicates a keyword rule naming an unknown confidence.
	ErrUnknownConfidence = errors.New("unknown confidence")
)

// Config is the full job configuration.
type Config struct {
	// Language selects the stemmer and stopword list ("dutch" or "english").
	Language string `yaml:"language"`

	Similarity SimilarityConfig `yaml:"similarity"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Waterfall  WaterfallConfig  `yaml:"waterfall"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Matching   MatchingConfig   `yaml:"matching"`
}

// SimilarityConfig tunes the multi-signal similarity engine.
type SimilarityConfig struct {
	// Weights maps signal names (literal, lexical, keyword, synonym,
	// semantic) to weights summing to exactly 1.0. A zero or absent
	// weight disables the signal.
	Weights map[string]float64 `yaml:"weights"`

	// LowExit and HighExit are the literal-signal short-circuit bounds.
	LowExit  float64 `yaml:"low_exit"`
	HighExit float64 `yaml:"high_exit"`

	// BandLow and BandHigh delimit the undecided band inside which the
	// embedding signal is invoked.
	BandLow  float64 `yaml:"band_low"`
	BandHigh float64 `yaml:"band_high"`

	// Synonyms maps domain terms to their canonical forms.
	Synonyms map[string]string `yaml:"synonyms"`
}

// ClusteringConfig tunes the leader clustering engine.
type ClusteringConfig struct {
	Threshold       float64 `yaml:"threshold"`
	WindowSize      int     `yaml:"window_size"` // 0 means unlimited
	MinLength       int     `yaml:"min_length"`
	LengthTolerance float64 `yaml:"length_tolerance"`
}

// WaterfallConfig tunes the decision cascade.
type WaterfallConfig struct {
	LibraryHigh      float64       `yaml:"library_high"`
	LibraryMid       float64       `yaml:"library_mid"`
	ConditionsHigh   float64       `yaml:"conditions_high"`
	ConditionsMedium float64       `yaml:"conditions_medium"`
	ConditionsLow    float64       `yaml:"conditions_low"`
	FragmentFraction float64       `yaml:"fragment_fraction"`
	MinFrequency     int           `yaml:"min_frequency"`
	GuardMinLength   int           `yaml:"guard_min_length"`
	MaxClauseLength  int           `yaml:"max_clause_length"`
	StaleYearBefore  int           `yaml:"stale_year_before"`
	KeywordRules     []KeywordRule `yaml:"keyword_rules"`
}

// KeywordRule is the configuration form of a fallback keyword rule.
type KeywordRule struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	Action     string   `yaml:"action"`
	Confidence string   `yaml:"confidence"`
	Reason     string   `yaml:"reason"`
}

// EmbeddingConfig configures the optional embedding service. An empty
// model disables the semantic signal regardless of its weight.
type EmbeddingConfig struct {
	Host     string `yaml:"host"`
	Model    string `yaml:"model"`
	CacheDir string `yaml:"cache_dir"` // empty means in-memory per job
}

// MatchingConfig tunes the reference matchers.
type MatchingConfig struct {
	// PoolSize is the number of workers scoring corpus sections
	// concurrently. Values below 2 keep scoring sequential.
	PoolSize int `yaml:"pool_size"`
}

// Default returns the configuration the analysis ships with.
func Default() *Config {
	return &Config{
		Language: normalize.LanguageDutch,
		Similarity: SimilarityConfig{
			Weights: map[string]float64{
				"literal":  0.30,
				"lexical":  0.20,
				"keyword":  0.20,
				"synonym":  0.10,
				"semantic": 0.20,
			},
			LowExit:  0.50,
			HighExit: 0.92,
			BandLow:  0.70,
			BandHigh: 0.90,
		},
		Clustering: ClusteringConfig{
			Threshold:       0.85,
			WindowSize:      500,
			MinLength:       20,
			LengthTolerance: 0.20,
		},
		Waterfall: WaterfallConfig{
			LibraryHigh:      waterfall.DefaultLibraryHigh,
			LibraryMid:       waterfall.DefaultLibraryMid,
			ConditionsHigh:   waterfall.DefaultConditionsHigh,
			ConditionsMedium: waterfall.DefaultConditionsMedium,
			ConditionsLow:    waterfall.DefaultConditionsLow,
			FragmentFraction: waterfall.DefaultFragmentFraction,
			MinFrequency:     waterfall.DefaultMinFrequency,
			GuardMinLength:   waterfall.DefaultGuardMinLength,
			MaxClauseLength:  waterfall.DefaultMaxClauseLength,
			StaleYearBefore:  waterfall.DefaultStaleYearBefore,
		},
		Embedding: EmbeddingConfig{
			Host: "http://localhost:11434/v1",
		},
		Matching: MatchingConfig{},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the whole configuration, failing on the first problem.
func (c *Config) Validate() error {
	if c.Language != normalize.LanguageDutch && c.Language != normalize.LanguageEnglish {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, c.Language)
	}

	if _, err := c.SignalWeights(); err != nil {
		return err
	}

	for name, v := range map[string]float64{
		"similarity.low_exit":         c.Similarity.LowExit,
		"similarity.high_exit":        c.Similarity.HighExit,
		"similarity.band_low":         c.Similarity.BandLow,
		"similarity.band_high":        c.Similarity.BandHigh,
		"clustering.threshold":        c.Clustering.Threshold,
		"clustering.length_tolerance": c.Clustering.LengthTolerance,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s is %g", ErrInvalidRange, name, v)
		}
	}
	if c.Similarity.LowExit >= c.Similarity.HighExit {
		return fmt.Errorf("%w: exits %g/%g", ErrBandOrder, c.Similarity.LowExit, c.Similarity.HighExit)
	}
	if c.Similarity.BandLow >= c.Similarity.BandHigh {
		return fmt.Errorf("%w: band %g/%g", ErrBandOrder, c.Similarity.BandLow, c.Similarity.BandHigh)
	}
	if c.Clustering.WindowSize < 0 {
		return fmt.Errorf("clustering.window_size must not be negative: %d", c.Clustering.WindowSize)
	}

	if err := c.Thresholds().Validate(); err != nil {
		return err
	}
	if _, err := c.KeywordRules(); err != nil {
		return err
	}
	return nil
}

// SignalWeights converts the named weights to the engine's form,
// checking names and the sum-to-1.0 invariant.
func (c *Config) SignalWeights() (map[core.SignalKind]float64, error) {
	byName := make(map[string]core.SignalKind, 5)
	for _, kind := range core.Signals() {
		byName[kind.String()] = kind
	}

	weights := make(map[core.SignalKind]float64, len(c.Similarity.Weights))
	var sum float64
	for name, weight := range c.Similarity.Weights {
		kind, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
		}
		if weight < 0 || weight > 1 {
			return nil, fmt.Errorf("%w: weight %s is %g", ErrInvalidRange, name, weight)
		}
		weights[kind] = weight
		sum += weight
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, fmt.Errorf("%w: got %g", ErrWeightSum, sum)
	}
	return weights, nil
}

// Thresholds converts the waterfall section to the engine's form.
func (c *Config) Thresholds() waterfall.Thresholds {
	return waterfall.Thresholds{
		LibraryHigh:      c.Waterfall.LibraryHigh,
		LibraryMid:       c.Waterfall.LibraryMid,
		ConditionsHigh:   c.Waterfall.ConditionsHigh,
		ConditionsMedium: c.Waterfall.ConditionsMedium,
		ConditionsLow:    c.Waterfall.ConditionsLow,
		FragmentFraction: c.Waterfall.FragmentFraction,
		MinFrequency:     c.Waterfall.MinFrequency,
		GuardMinLength:   c.Waterfall.GuardMinLength,
		MaxClauseLength:  c.Waterfall.MaxClauseLength,
		StaleYearBefore:  c.Waterfall.StaleYearBefore,
	}
}

// KeywordRules converts the keyword-rule table to the engine's form.
func (c *Config) KeywordRules() ([]waterfall.KeywordRule, error) {
	rules := make([]waterfall.KeywordRule, 0, len(c.Waterfall.KeywordRules))
	for _, r := range c.Waterfall.KeywordRules {
		action, err := parseAction(r.Action)
		if err != nil {
			return nil, fmt.Errorf("keyword rule %q: %w", r.Name, err)
		}
		confidence, err := parseConfidence(r.Confidence)
		if err != nil {
			return nil, fmt.Errorf("keyword rule %q: %w", r.Name, err)
		}

		rule := waterfall.KeywordRule{
			Name:       r.Name,
			Keywords:   r.Keywords,
			Action:     action,
			Confidence: confidence,
			Reason:     r.Reason,
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("keyword rule %q: %w", r.Name, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseAction(name string) (core.Action, error) {
	for _, a := range []core.Action{
		core.ActionRemove, core.ActionReplaceWithCode, core.ActionVerifySimilarity,
		core.ActionStandardize, core.ActionKeep, core.ActionConsistencyCheck,
		core.ActionManualSplit, core.ActionManualReview,
	} {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

func parseConfidence(name string) (core.Confidence, error) {
	for _, c := range []core.Confidence{core.ConfidenceHigh, core.ConfidenceMedium, core.ConfidenceLow} {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownConfidence, name)
}
