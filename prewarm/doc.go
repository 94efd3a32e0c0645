// Package prewarm fills the vector cache ahead of analysis jobs.
//
// Embedding reference corpora during a job serializes network calls
// into the scoring hot path. Prewarming embeds all corpus texts in
// batches beforehand, with retry and progress reporting, so jobs that
// enable the semantic signal hit a warm cache. Vectors are keyed by
// content hash of the comparison-grade text, matching the similarity
// engine's lookup.
package prewarm
