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


// Package cluster implements incremental leader clustering of clauses.
//
// Clauses are processed longest-first. Each clause either joins an
// existing cluster or founds a new one with itself as leader:
//
//  1. exact content-hash match on comparison-grade text
//  2. content-hash match on canonicalized text (amounts, dates and postal
//     codes replaced by placeholders)
//  3. windowed scan: literal edit ratio against the leaders of the most
//     recently created clusters, behind a length-tolerance pre-filter
//
// The first cluster at or above the threshold wins; there is no global
// nearest-neighbor search. The window is the last N clusters *created*,
// a deliberate recency-biased recall trade-off. Processing is strictly
// sequential and deterministic: the same input order always produces the
// same clusters.
//
// Clauses below the minimum comparable length never participate in
// comparisons; they collect in a dedicated not-applicable pseudo-cluster.
// Average cost is O(n·w); under heavy duplication the O(1) hash paths
// dominate.
package cluster
