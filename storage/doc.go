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


// Package storage provides the embedding vector cache abstraction.
//
// Scoring one cluster leader against a reference corpus embeds the same
// texts over and over; the cache memoizes vectors keyed by the content
// hash of the comparison-grade text. The default backend is an in-memory
// BadgerDB instance scoped to a single job. Opening the cache on a
// directory instead gives repeated runs over the same corpora a warm
// start; only derived vectors are ever stored, never job state.
//
// Constructors return the VectorCache interface rather than a concrete
// type, so backends stay swappable and tests can substitute fakes.
//
// All implementations must be thread-safe: the similarity engine reads
// and writes the cache from concurrent corpus-scan workers.
package storage
