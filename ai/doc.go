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


// Package ai provides the embedding abstraction used by the semantic
// similarity signal.
//
// The core engines depend on the Embedder interface rather than a concrete
// client, so the embedding model is an explicit, injected, read-only
// dependency. Implementations must be safe for concurrent use: once
// constructed, an Embedder is shared across concurrent scoring calls
// without locking.
//
// Two implementations ship with this module:
//
//   - openai: a client for OpenAI-compatible embedding APIs (Ollama,
//     LocalAI, vLLM, OpenAI itself) built on langchaingo.
//   - mock: a deterministic test double that derives vectors from a text
//     hash, so tests never need a live model.
//
// A job configured without an embedder simply runs with the semantic
// signal unavailable; the similarity engine renormalizes its weights over
// the remaining signals.
package ai
