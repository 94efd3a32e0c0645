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


package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/veridia/clausewise/ai"
	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/storage"
)

// Default short-circuit bounds and undecided band.
const (
	DefaultLowExit  = 0.50
	DefaultHighExit = 0.92
	DefaultBandLow  = 0.70
	DefaultBandHigh = 0.90
)

// weightSumTolerance is the permitted deviation of the configured weight
// sum from 1.0.
const weightSumTolerance = 1e-9

// Engine computes composite similarity scores for text pairs.
// Immutable after construction and safe for concurrent use: the
// normalizer, weights, synonym table and DF table are read-only, and
// injected models must be thread-safe per their contracts.
type Engine struct {
	normalizer *normalize.Normalizer
	weights    map[core.SignalKind]float64
	synonyms   map[string]string
	df         *DocFrequency
	embedder   ai.Embedder
	cache      storage.VectorCache
	lowExit    float64
	highExit   float64
	bandLow    float64
	bandHigh   float64
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmbedder sets the embedding model for the semantic signal.
// Without an embedder the semantic signal is unavailable and weights
// renormalize over the remaining signals.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(e *Engine) {
		e.embedder = embedder
	}
}

// WithVectorCache sets the embedding vector cache.
func WithVectorCache(cache storage.VectorCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithSynonyms sets the domain synonym table (term to canonical form).
func WithSynonyms(synonyms map[string]string) Option {
	return func(e *Engine) {
		e.synonyms = synonyms
	}
}

// WithDocFrequency sets the document-frequency table for the keyword signal.
func WithDocFrequency(df *DocFrequency) Option {
	return func(e *Engine) {
		e.df = df
	}
}

// WithExitBounds sets the literal-signal short-circuit bounds.
func WithExitBounds(low, high float64) Option {
	return func(e *Engine) {
		e.lowExit = low
		e.highExit = high
	}
}

// WithUndecidedBand sets the composite band inside which the embedding
// signal is invoked.
func WithUndecidedBand(low, high float64) Option {
	return func(e *Engine) {
		e.bandLow = low
		e.bandHigh = high
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewEngine creates a similarity engine.
// Weights must cover at least one known signal, be non-negative, and sum
// to exactly 1.0; violations fail fast rather than being clamped.
func NewEngine(normalizer *normalize.Normalizer, weights map[core.SignalKind]float64, opts ...Option) (*Engine, error) {
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if len(weights) == 0 {
		return nil, ErrNoWeights
	}

	known := make(map[core.SignalKind]bool, 5)
	for _, kind := range core.Signals() {
		known[kind] = true
	}

	var sum float64
	for kind, weight := range weights {
		if !known[kind] {
			return nil, fmt.Errorf("%w: unknown signal %d", ErrInvalidWeight, kind)
		}
		if weight < 0 {
			return nil, fmt.Errorf("%w: %s is negative", ErrInvalidWeight, kind)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, fmt.Errorf("%w: got %g", ErrWeightSum, sum)
	}

	e := &Engine{
		normalizer: normalizer,
		weights:    weights,
		lowExit:    DefaultLowExit,
		highExit:   DefaultHighExit,
		bandLow:    DefaultBandLow,
		bandHigh:   DefaultBandHigh,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Available reports whether a signal can run in this job: it must carry a
// positive weight and, for the semantic signal, an embedder must be
// configured.
func (e *Engine) Available(kind core.SignalKind) bool {
	if e.weights[kind] <= 0 {
		return false
	}
	if kind == core.SignalSemantic && e.embedder == nil {
		return false
	}
	return true
}

// AvailableSignals lists the signals that can run, in computation order.
func (e *Engine) AvailableSignals() []core.SignalKind {
	var kinds []core.SignalKind
	for _, kind := range core.Signals() {
		if e.Available(kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// LiteralRatio scores only the literal signal on comparison-grade text.
// The clustering engine uses this as its cheap windowed comparison.
func (e *Engine) LiteralRatio(a, b string) float64 {
	return EditRatio(e.normalizer.Comparison(a), e.normalizer.Comparison(b))
}

// Score computes the composite similarity of two texts.
// It never fails: a signal that cannot be computed (for example the
// embedder erroring mid-job) is logged and left out, and the weights
// renormalize over the computed subset.
func (e *Engine) Score(ctx context.Context, a, b string) core.SimilarityBreakdown {
	scores := make(map[core.SignalKind]float64, 5)

	na := e.normalizer.Comparison(a)
	nb := e.normalizer.Comparison(b)

	if e.Available(core.SignalLiteral) {
		literal := EditRatio(na, nb)
		scores[core.SignalLiteral] = literal

		// Near-certain non-match or near-certain match: the cheap signal
		// decides alone.
		if literal < e.lowExit || literal >= e.highExit {
			return e.finish(scores, true)
		}
	}

	if e.Available(core.SignalLexical) {
		scores[core.SignalLexical] = EditRatio(e.normalizer.Retrieval(a), e.normalizer.Retrieval(b))
	}
	if e.Available(core.SignalKeyword) {
		scores[core.SignalKeyword] = e.keywordOverlap(a, b)
	}
	if e.Available(core.SignalSynonym) {
		scores[core.SignalSynonym] = e.synonymRatio(na, nb)
	}

	if e.Available(core.SignalSemantic) {
		running := composite(scores, e.weights)
		if running >= e.bandLow && running < e.bandHigh {
			semantic, err := e.semanticScore(ctx, na, nb)
			if err != nil {
				e.logger.Warn("semantic signal unavailable for comparison", "err", err)
			} else {
				scores[core.SignalSemantic] = semantic
			}
		}
	}

	return e.finish(scores, false)
}

// finish assembles the breakdown: weights restricted to computed signals,
// renormalized to sum to 1.0 over that subset.
func (e *Engine) finish(scores map[core.SignalKind]float64, shortCircuited bool) core.SimilarityBreakdown {
	weightsUsed := make(map[core.SignalKind]float64, len(scores))

	var weightSum float64
	for kind := range scores {
		weightSum += e.weights[kind]
	}
	if weightSum > 0 {
		for kind := range scores {
			weightsUsed[kind] = e.weights[kind] / weightSum
		}
	}

	var final float64
	for kind, score := range scores {
		final += weightsUsed[kind] * score
	}

	return core.SimilarityBreakdown{
		SignalScores:   scores,
		WeightsUsed:    weightsUsed,
		FinalScore:     clamp01(final),
		ShortCircuited: shortCircuited,
	}
}

// composite computes the renormalized weighted sum over computed signals.
func composite(scores map[core.SignalKind]float64, weights map[core.SignalKind]float64) float64 {
	var weighted, weightSum float64
	for kind, score := range scores {
		weighted += weights[kind] * score
		weightSum += weights[kind]
	}
	if weightSum == 0 {
		return 0
	}
	return weighted / weightSum
}
