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


package cluster

import (
	"context"
	"log/slog"
	"sort"

	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/similarity"
)

// Defaults for the clustering engine.
const (
	DefaultWindowSize      = 500
	DefaultMinLength       = 20
	DefaultLengthTolerance = 0.20
)

// Engine groups clauses with the incremental leader algorithm.
// Immutable after construction; Cluster may be called repeatedly.
type Engine struct {
	threshold       float64
	windowSize      int // 0 means unlimited
	minLength       int
	lengthTolerance float64
	logger          *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWindowSize bounds the scan to the last n created clusters.
// Zero means unlimited.
func WithWindowSize(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.windowSize = n
		}
	}
}

// WithMinLength sets the minimum comparable clause length in runes.
// Shorter clauses route to the not-applicable pseudo-cluster.
func WithMinLength(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.minLength = n
		}
	}
}

// WithLengthTolerance sets the relative leader-length tolerance of the
// windowed scan pre-filter.
func WithLengthTolerance(tolerance float64) Option {
	return func(e *Engine) {
		e.lengthTolerance = tolerance
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

// NewEngine creates a clustering engine with the given similarity threshold.
func NewEngine(threshold float64, opts ...Option) (*Engine, error) {
	if threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	e := &Engine{
		threshold:       threshold,
		windowSize:      DefaultWindowSize,
		minLength:       DefaultMinLength,
		lengthTolerance: DefaultLengthTolerance,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.lengthTolerance < 0 || e.lengthTolerance > 1 {
		return nil, ErrInvalidTolerance
	}
	return e, nil
}

// Result is the outcome of one clustering run.
type Result struct {
	Clusters   []*core.Cluster // creation order; the pseudo-cluster keeps its creation slot
	Membership map[core.ID]int // clause id to cluster id
}

// Cluster partitions the clauses. Every clause lands in exactly one
// cluster; the sum of cluster frequencies equals the input count.
// An empty or nil input yields an empty result, never an error; the only
// error returned is context cancellation.
func (e *Engine) Cluster(ctx context.Context, clauses []*core.Clause) (*Result, error) {
	result := &Result{
		Membership: make(map[core.ID]int, len(clauses)),
	}
	if len(clauses) == 0 {
		return result, nil
	}

	// Longest first. Stable so equal lengths keep input order and the run
	// stays deterministic.
	ordered := make([]*core.Clause, len(clauses))
	copy(ordered, clauses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Length > ordered[j].Length
	})

	exactIndex := make(map[core.ID]int, len(clauses))
	canonicalIndex := make(map[core.ID]int, len(clauses))
	window := make([]int, 0, len(clauses)) // comparable cluster ids, creation order
	pseudo := -1                           // id of the not-applicable pseudo-cluster

	for i, clause := range ordered {
		// A cancellation check per clause keeps long runs responsive.
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if clause.Length < e.minLength {
			if pseudo < 0 {
				pseudo = len(result.Clusters)
				result.Clusters = append(result.Clusters, &core.Cluster{
					Id:            pseudo,
					Leader:        clause,
					NotApplicable: true,
				})
			}
			e.append(result, pseudo, clause)
			continue
		}

		exactHash := core.IDFromContent(clause.NormalizedText)
		if id, ok := exactIndex[exactHash]; ok {
			e.append(result, id, clause)
			continue
		}

		canonicalHash := core.IDFromContent(normalize.CanonicalizeComparison(clause.NormalizedText))
		if id, ok := canonicalIndex[canonicalHash]; ok {
			e.append(result, id, clause)
			exactIndex[exactHash] = id
			continue
		}

		if id, ok := e.scanWindow(window, result.Clusters, clause); ok {
			e.append(result, id, clause)
			exactIndex[exactHash] = id
			canonicalIndex[canonicalHash] = id
			continue
		}

		// No match: this clause founds a new cluster and leads it.
		id := len(result.Clusters)
		result.Clusters = append(result.Clusters, &core.Cluster{
			Id:     id,
			Leader: clause,
		})
		e.append(result, id, clause)
		exactIndex[exactHash] = id
		canonicalIndex[canonicalHash] = id
		window = append(window, id)
	}

	e.logger.Debug("clustering complete",
		"clauses", len(clauses),
		"clusters", len(result.Clusters))

	return result, nil
}

// scanWindow compares the clause against leaders of the windowed clusters,
// oldest first. Returns the first cluster at or above the threshold.
func (e *Engine) scanWindow(window []int, clusters []*core.Cluster, clause *core.Clause) (int, bool) {
	start := 0
	if e.windowSize > 0 && len(window) > e.windowSize {
		start = len(window) - e.windowSize
	}

	for _, id := range window[start:] {
		leader := clusters[id].Leader
		if !e.withinLengthTolerance(leader.Length, clause.Length) {
			continue
		}
		if similarity.EditRatio(leader.NormalizedText, clause.NormalizedText) >= e.threshold {
			return id, true
		}
	}
	return 0, false
}

// withinLengthTolerance is the cheap false-merge guard: candidates whose
// leader length differs too much are rejected before scoring.
func (e *Engine) withinLengthTolerance(leaderLen, clauseLen int) bool {
	maxLen := leaderLen
	if clauseLen > maxLen {
		maxLen = clauseLen
	}
	if maxLen == 0 {
		return true
	}
	diff := leaderLen - clauseLen
	if diff < 0 {
		diff = -diff
	}
	return float64(diff)/float64(maxLen) <= e.lengthTolerance
}

// append records the clause as a member of the cluster.
func (e *Engine) append(result *Result, clusterId int, clause *core.Clause) {
	c := result.Clusters[clusterId]
	c.MemberIds = append(c.MemberIds, clause.Id)
	result.Membership[clause.Id] = clusterId
}
