// Package mock provides a deterministic test double for ai.Embedder.
// Vectors are derived from a hash of the input text, so identical texts
// always embed identically and tests never need a live model.
package mock
