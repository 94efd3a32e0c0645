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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/veridia/clausewise/cluster"
	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/waterfall"
)

// Row is one raw input clause with its provenance.
type Row struct {
	Text      string
	SourceRef string // policy number, row reference
}

// Result is the outcome of one job.
type Result struct {
	JobId      string
	Clusters   []*core.Cluster
	Membership map[core.ID]int
	Advices    []*core.Advice // one per cluster, creation order
	Summary    map[string]int // advice count per action name
	Duration   time.Duration
}

// Pipeline runs analysis jobs. Read-only after construction.
type Pipeline struct {
	normalizer *normalize.Normalizer
	clusterer  *cluster.Engine
	decider    *waterfall.Engine
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an analysis pipeline.
func NewPipeline(normalizer *normalize.Normalizer, clusterer *cluster.Engine, decider *waterfall.Engine, opts ...Option) (*Pipeline, error) {
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if clusterer == nil {
		return nil, ErrClustererRequired
	}
	if decider == nil {
		return nil, ErrDeciderRequired
	}

	p := &Pipeline{
		normalizer: normalizer,
		clusterer:  clusterer,
		decider:    decider,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Clauses converts input rows to clauses. Ids derive from the row index
// and text together, so repeated texts stay distinct clauses.
func (p *Pipeline) Clauses(rows []Row) []*core.Clause {
	clauses := make([]*core.Clause, len(rows))
	for i, row := range rows {
		normalized := p.normalizer.Comparison(row.Text)
		clauses[i] = &core.Clause{
			Id:             core.IDFromContent(fmt.Sprintf("%d|%s", i, row.Text)),
			RawText:        row.Text,
			NormalizedText: normalized,
			SourceRef:      row.SourceRef,
			Length:         utf8.RuneCountInString(normalized),
		}
	}
	return clauses
}

// Run executes one job: cluster the rows, then decide every cluster.
// An empty row set yields an empty result, not an error.
func (p *Pipeline) Run(ctx context.Context, rows []Row) (*Result, error) {
	started := time.Now()
	jobId := uuid.NewString()

	p.logger.Info("job started", "job", jobId, "rows", len(rows))

	clauses := p.Clauses(rows)
	clustered, err := p.clusterer.Cluster(ctx, clauses)
	if err != nil {
		return nil, fmt.Errorf("clustering: %w", err)
	}

	result := &Result{
		JobId:      jobId,
		Clusters:   clustered.Clusters,
		Membership: clustered.Membership,
		Advices:    make([]*core.Advice, 0, len(clustered.Clusters)),
		Summary:    make(map[string]int),
	}

	for _, c := range clustered.Clusters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		advice := p.decide(ctx, jobId, c)
		result.Advices = append(result.Advices, advice)
		result.Summary[advice.Action.String()]++
	}

	result.Duration = time.Since(started)
	p.logger.Info("job finished",
		"job", jobId,
		"clusters", len(result.Clusters),
		"duration", result.Duration)
	return result, nil
}

// decide runs the cascade for one cluster, converting panics and errors
// into manual-review advice so the job survives bad inputs.
func (p *Pipeline) decide(ctx context.Context, jobId string, c *core.Cluster) (advice *core.Advice) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("cluster processing panicked", "job", jobId, "cluster", c.Id, "panic", r)
			advice = failureAdvice(c, fmt.Sprintf("processing failure: %v", r))
		}
	}()

	advice, err := p.decider.Decide(ctx, c)
	if err != nil {
		p.logger.Error("cluster decision failed", "job", jobId, "cluster", c.Id, "err", err)
		return failureAdvice(c, fmt.Sprintf("processing failure: %v", err))
	}
	return advice
}

func failureAdvice(c *core.Cluster, reason string) *core.Advice {
	return &core.Advice{
		ClusterId:  c.Id,
		Action:     core.ActionManualReview,
		Confidence: core.ConfidenceLow,
		Reason:     reason,
		Stage:      waterfall.StageManualReview,
	}
}
