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

// Package clausewise turns free-text insurance-policy clauses into
// actionable recommendations. It clusters near-duplicate clauses,
// scores each cluster against reference corpora, and runs a rule
// cascade that emits one auditable Advice per cluster.
//
// Analyzer is the one-call entry point wiring together the normalizer,
// the similarity engine, the reference matchers, the clustering engine
// and the decision cascade from a single configuration.
package clausewise

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veridia/clausewise/ai"
	"github.com/veridia/clausewise/ai/openai"
	"github.com/veridia/clausewise/cluster"
	"github.com/veridia/clausewise/config"
	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/pipeline"
	"github.com/veridia/clausewise/refmatch"
	"github.com/veridia/clausewise/similarity"
	"github.com/veridia/clausewise/storage"
	"github.com/veridia/clausewise/storage/badger"
	"github.com/veridia/clausewise/waterfall"
)

// Analyzer runs analysis jobs from one validated configuration.
type Analyzer struct {
	cfg        *config.Config
	normalizer *normalize.Normalizer
	embedder   ai.Embedder
	cache      storage.VectorCache
	backend    *badger.Backend
	library    []*core.ReferenceSection
	conditions []*core.ReferenceSection
	logger     *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer) error

// WithLibrary sets the canonical clause-library corpus.
func WithLibrary(sections []*core.ReferenceSection) AnalyzerOption {
	return func(a *Analyzer) error {
		a.library = sections
		return nil
	}
}

// WithConditions sets the parsed policy-conditions corpus.
func WithConditions(sections []*core.ReferenceSection) AnalyzerOption {
	return func(a *Analyzer) error {
		a.conditions = sections
		return nil
	}
}

// WithEmbedder injects an embedding model, overriding the configured
// embedding service. Useful for testing.
func WithEmbedder(embedder ai.Embedder) AnalyzerOption {
	return func(a *Analyzer) error {
		a.embedder = embedder
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnalyzer validates the configuration and prepares the shared job
// dependencies. The semantic signal degrades to unavailable when the
// embedding service cannot be reached; that is logged, not fatal.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:        cfg,
		normalizer: normalize.New(normalize.WithLanguage(cfg.Language)),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.embedder == nil && cfg.Embedding.Model != "" {
		embedder, err := openai.NewEmbedder(ai.NewConfig(
			ai.WithEmbeddingHost(cfg.Embedding.Host),
			ai.WithEmbeddingModel(cfg.Embedding.Model),
		))
		if err != nil {
			a.logger.Warn("embedding service unavailable, semantic signal disabled", "err", err)
		} else {
			a.embedder = embedder
		}
	}

	if a.embedder != nil {
		if err := a.openCache(); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// openCache opens the vector cache: persistent under the configured
// directory, otherwise in-memory for the lifetime of the analyzer.
func (a *Analyzer) openCache() error {
	if dir := a.cfg.Embedding.CacheDir; dir != "" {
		backend, err := badger.OpenBackend(dir, false)
		if err != nil {
			return fmt.Errorf("opening vector cache: %w", err)
		}
		cache, err := badger.NewVectorCache(backend)
		if err != nil {
			backend.Close()
			return err
		}
		a.backend = backend
		a.cache = cache
		return nil
	}

	cache, backend, err := badger.NewMemoryCache()
	if err != nil {
		return fmt.Errorf("opening vector cache: %w", err)
	}
	a.backend = backend
	a.cache = cache
	return nil
}

// Analyze runs one job over the input rows and returns its result.
func (a *Analyzer) Analyze(ctx context.Context, rows []pipeline.Row) (*pipeline.Result, error) {
	engine, err := a.similarityEngine(rows)
	if err != nil {
		return nil, err
	}

	library, err := a.matcher("library", a.library, engine)
	if err != nil {
		return nil, err
	}
	defer release(library)

	conditions, err := a.matcher("conditions", a.conditions, engine)
	if err != nil {
		return nil, err
	}
	defer release(conditions)

	rules, err := a.cfg.KeywordRules()
	if err != nil {
		return nil, err
	}

	decider, err := waterfall.NewEngine(library, conditions, a.normalizer,
		waterfall.WithThresholds(a.cfg.Thresholds()),
		waterfall.WithKeywordRules(rules),
		waterfall.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	clusterer, err := cluster.NewEngine(a.cfg.Clustering.Threshold,
		cluster.WithWindowSize(a.cfg.Clustering.WindowSize),
		cluster.WithMinLength(a.cfg.Clustering.MinLength),
		cluster.WithLengthTolerance(a.cfg.Clustering.LengthTolerance),
		cluster.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	job, err := pipeline.NewPipeline(a.normalizer, clusterer, decider,
		pipeline.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	return job.Run(ctx, rows)
}

// similarityEngine builds the engine for one job, with the document
// frequency table computed over the rows and both corpora.
func (a *Analyzer) similarityEngine(rows []pipeline.Row) (*similarity.Engine, error) {
	weights, err := a.cfg.SignalWeights()
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(rows)+len(a.library)+len(a.conditions))
	for _, row := range rows {
		texts = append(texts, row.Text)
	}
	for _, s := range a.library {
		texts = append(texts, s.NormalizedText)
	}
	for _, s := range a.conditions {
		texts = append(texts, s.NormalizedText)
	}

	opts := []similarity.Option{
		similarity.WithSynonyms(a.cfg.Similarity.Synonyms),
		similarity.WithDocFrequency(similarity.NewDocFrequency(a.normalizer, texts)),
		similarity.WithExitBounds(a.cfg.Similarity.LowExit, a.cfg.Similarity.HighExit),
		similarity.WithUndecidedBand(a.cfg.Similarity.BandLow, a.cfg.Similarity.BandHigh),
		similarity.WithLogger(a.logger),
	}
	if a.embedder != nil {
		opts = append(opts, similarity.WithEmbedder(a.embedder), similarity.WithVectorCache(a.cache))
	}

	return similarity.NewEngine(a.normalizer, weights, opts...)
}

func (a *Analyzer) matcher(name string, sections []*core.ReferenceSection, engine *similarity.Engine) (*refmatch.Matcher, error) {
	if len(sections) == 0 {
		return nil, nil
	}

	opts := []refmatch.Option{refmatch.WithLogger(a.logger)}
	if a.cfg.Matching.PoolSize >= 2 {
		opts = append(opts, refmatch.WithPoolSize(a.cfg.Matching.PoolSize))
	}
	return refmatch.NewMatcher(name, sections, engine, a.normalizer, opts...)
}

func release(m *refmatch.Matcher) {
	if m != nil {
		m.Release()
	}
}

// SetLibrary replaces the clause-library corpus for subsequent jobs.
func (a *Analyzer) SetLibrary(sections []*core.ReferenceSection) {
	a.library = sections
}

// SetConditions replaces the policy-conditions corpus for subsequent jobs.
func (a *Analyzer) SetConditions(sections []*core.ReferenceSection) {
	a.conditions = sections
}

// Sections converts normalized reference texts into corpus sections.
// Texts are normalized to comparison grade here, so callers hand in raw
// section texts as extracted from the source document.
func (a *Analyzer) Sections(document string, texts []string, titles []string) []*core.ReferenceSection {
	sections := make([]*core.ReferenceSection, 0, len(texts))
	for i, text := range texts {
		title := ""
		if i < len(titles) {
			title = titles[i]
		}
		sections = append(sections, &core.ReferenceSection{
			Id:             core.IDFromContent(fmt.Sprintf("%s|%d|%s", document, i, text)),
			Title:          title,
			NormalizedText: a.normalizer.Comparison(text),
			SourceDocument: document,
			Position:       i,
		})
	}
	return sections
}

// Close releases the vector cache.
func (a *Analyzer) Close() error {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("error closing vector cache", "err", err)
		}
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("error closing cache backend", "err", err)
			return err
		}
	}
	return nil
}
