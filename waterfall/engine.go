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

package waterfall

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/refmatch"
)

// Engine runs the decision cascade. Read-only after construction; safe
// for concurrent use.
type Engine struct {
	stages     []stage
	thresholds Thresholds
	rules      []KeywordRule
	normalizer *normalize.Normalizer
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithThresholds overrides the default score bands and limits.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) error {
		if err := t.Validate(); err != nil {
			return err
		}
		e.thresholds = t
		return nil
	}
}

// WithKeywordRules sets the fallback keyword-rule table.
// Rules are evaluated in the given order.
func WithKeywordRules(rules []KeywordRule) Option {
	return func(e *Engine) error {
		for _, rule := range rules {
			if err := rule.Validate(); err != nil {
				return err
			}
		}
		e.rules = rules
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine builds the cascade over the two reference matchers. Either
// matcher may be nil; its stage then falls through with a note in the
// audit trail.
func NewEngine(library, conditions *refmatch.Matcher, normalizer *normalize.Normalizer, opts ...Option) (*Engine, error) {
	if normalizer == nil {
		return nil, refmatch.ErrNormalizerRequired
	}

	e := &Engine{
		thresholds: DefaultThresholds(),
		normalizer: normalizer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.stages = []stage{
		&adminHygiene{thresholds: e.thresholds},
		&multiPatternGuard{thresholds: e.thresholds},
		&libraryMatch{matcher: library, thresholds: e.thresholds},
		&conditionsMatch{matcher: conditions, thresholds: e.thresholds},
		&fallbackHeuristics{rules: e.rules, thresholds: e.thresholds},
		&manualReview{},
	}
	return e, nil
}

// Decide runs the cascade for one cluster and returns its Advice. The
// first stage that fires terminates the cascade; the trailing default
// guarantees exactly one Advice per call. The full evaluation trail,
// including stages that fell through, ends up in Advice.Reason.
func (e *Engine) Decide(ctx context.Context, cluster *core.Cluster) (*core.Advice, error) {
	if cluster == nil || cluster.Leader == nil {
		return nil, ErrNilCluster
	}

	cand := &candidate{
		cluster: cluster,
		raw:     cluster.Leader.RawText,
		text:    e.normalizer.Comparison(cluster.Leader.RawText),
	}
	cand.length = utf8.RuneCountInString(cand.text)

	trail := make([]string, 0, len(e.stages))
	for _, s := range e.stages {
		advice, note := s.evaluate(ctx, cand)
		trail = append(trail, s.name()+": "+note)

		if advice == nil {
			continue
		}

		advice.Reason = strings.Join(trail, "; ")
		e.logger.Debug("cluster decided",
			"cluster", cluster.Id,
			"stage", advice.Stage,
			"action", advice.Action.String(),
			"confidence", advice.Confidence.String())
		return advice, nil
	}

	// Unreachable: manualReview always fires.
	return nil, ErrNilCluster
}
