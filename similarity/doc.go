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


// Package similarity implements the multi-signal similarity engine.
//
// A comparison combines up to five sub-signals, cheapest first:
//
//	literal   edit-distance ratio on comparison-grade text
//	lexical   edit-distance ratio on stemmed retrieval-grade text
//	keyword   document-frequency-weighted term overlap
//	synonym   edit-distance ratio after canonical domain-term substitution
//	semantic  cosine similarity of embedding vectors
//
// The composite is the weighted sum over the signals that were actually
// computed, with the configured weights renormalized to sum to 1.0 over
// that subset. A single computed signal returns its raw score unmodified.
// Renormalization is a correctness invariant: disabling a signal must not
// dilute scores.
//
// Cost-aware short-circuiting: when the literal ratio falls below the low
// exit bound or reaches the high exit bound, the comparison is decided and
// the remaining signals are skipped. The embedding signal runs only while
// the running composite sits in the undecided band, where paraphrase
// detection earns its cost.
package similarity
