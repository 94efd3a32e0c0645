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


package refmatch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/similarity"
)

// fragmentMinLength is the minimum sentence length in runes for fragment
// decomposition; shorter sentences match too easily to mean anything.
const fragmentMinLength = 15

// Matcher matches queries against one reference corpus.
// Read-only after construction; safe for concurrent use except Release.
type Matcher struct {
	name         string
	sections     []*core.ReferenceSection
	engine       *similarity.Engine
	normalizer   *normalize.Normalizer
	concatenated string
	pool         *ants.Pool
	logger       *slog.Logger
}

// Match is the outcome of one corpus match.
type Match struct {
	// Section is the best-scoring corpus section, nil when the corpus is empty.
	Section *core.ReferenceSection

	// Breakdown is the similarity breakdown of the best-scoring section.
	Breakdown core.SimilarityBreakdown

	// ExactSubstring reports whether the whole query appears verbatim in
	// the corpus.
	ExactSubstring bool

	// FragmentFraction is the fraction of query sentences found verbatim
	// in the corpus, in [0,1].
	FragmentFraction float64
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithPoolSize enables parallel corpus scoring with the given number of
// workers. Default is sequential scoring.
func WithPoolSize(size int) Option {
	return func(m *Matcher) error {
		if size < 2 {
			return nil
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		m.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewMatcher creates a matcher over the given corpus.
// Sections are held as-is; their NormalizedText must be comparison-grade.
func NewMatcher(name string, sections []*core.ReferenceSection, engine *similarity.Engine, normalizer *normalize.Normalizer, opts ...Option) (*Matcher, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if name == "" {
		name = "corpus"
	}

	texts := make([]string, len(sections))
	for i, section := range sections {
		texts[i] = section.NormalizedText
	}

	m := &Matcher{
		name:         name,
		sections:     sections,
		engine:       engine,
		normalizer:   normalizer,
		concatenated: strings.Join(texts, "   "),
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			m.Release()
			return nil, err
		}
	}
	return m, nil
}

// Name returns the corpus name used in audit trails.
func (m *Matcher) Name() string {
	return m.name
}

// Size returns the number of corpus sections.
func (m *Matcher) Size() int {
	return len(m.sections)
}

// Release frees the worker pool, if any.
// The matcher must not be used after Release.
func (m *Matcher) Release() {
	if m.pool != nil {
		m.pool.Release()
	}
}

// BestMatch matches the query against the corpus.
// An empty corpus or an empty query yields a zero Match, never an error.
func (m *Matcher) BestMatch(ctx context.Context, query string) *Match {
	match := &Match{}

	normalized := m.normalizer.Comparison(query)
	if normalized == "" || len(m.sections) == 0 {
		return match
	}

	// Fast path: the whole clause appears verbatim in the corpus. No
	// signal computation needed; the answer is certain.
	if strings.Contains(m.concatenated, normalized) {
		match.ExactSubstring = true
		match.Section = m.containingSection(normalized)
		match.Breakdown = core.SimilarityBreakdown{
			SignalScores:   map[core.SignalKind]float64{core.SignalLiteral: 1},
			WeightsUsed:    map[core.SignalKind]float64{core.SignalLiteral: 1},
			FinalScore:     1,
			ShortCircuited: true,
		}
		match.FragmentFraction = 1
		return match
	}

	scores := m.scoreAll(ctx, query)

	// Deterministic reduction: maximum score, ties broken by corpus order.
	best := -1
	for i, breakdown := range scores {
		if best < 0 || breakdown.FinalScore > scores[best].FinalScore {
			best = i
		}
	}
	if best >= 0 {
		match.Section = m.sections[best]
		match.Breakdown = scores[best]
	}

	match.FragmentFraction = m.fragmentFraction(normalized)
	return match
}

// scoreAll scores the query against every section, fanning out to the
// worker pool when configured. The result slice is indexed by section so
// the outcome is independent of completion order.
func (m *Matcher) scoreAll(ctx context.Context, query string) []core.SimilarityBreakdown {
	scores := make([]core.SimilarityBreakdown, len(m.sections))

	if m.pool == nil {
		for i, section := range m.sections {
			scores[i] = m.engine.Score(ctx, query, section.NormalizedText)
		}
		return scores
	}

	var wg sync.WaitGroup
	for i := range m.sections {
		i := i
		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			scores[i] = m.engine.Score(ctx, query, m.sections[i].NormalizedText)
		})
		if err != nil {
			// Pool refused the task; score inline so no section is skipped.
			m.logger.Warn("pool submit failed, scoring inline", "corpus", m.name, "err", err)
			scores[i] = m.engine.Score(ctx, query, m.sections[i].NormalizedText)
			wg.Done()
		}
	}
	wg.Wait()
	return scores
}

// containingSection finds the section whose text contains the query.
// Returns nil when the query only spans a section boundary in the
// concatenated corpus.
func (m *Matcher) containingSection(normalized string) *core.ReferenceSection {
	for _, section := range m.sections {
		if strings.Contains(section.NormalizedText, normalized) {
			return section
		}
	}
	return nil
}

// fragmentFraction splits the query into sentences and reports the
// fraction found verbatim in the corpus.
func (m *Matcher) fragmentFraction(normalized string) float64 {
	sentences := splitSentences(normalized)
	if len(sentences) == 0 {
		return 0
	}

	matched := 0
	for _, sentence := range sentences {
		if strings.Contains(m.concatenated, sentence) {
			matched++
		}
	}
	return float64(matched) / float64(len(sentences))
}

// splitSentences breaks comparison-grade text on sentence punctuation,
// dropping fragments too short to be meaningful.
func splitSentences(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == ';' || r == '!' || r == '?'
	})

	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if len([]rune(trimmed)) < fragmentMinLength {
			continue
		}
		sentences = append(sentences, trimmed)
	}
	return sentences
}
