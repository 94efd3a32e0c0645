package prewarm

import "errors"

var (
	// ErrCacheRequired indicates a nil vector cache was passed.
	ErrCacheRequired = errors.New("vector cache is required")

	// ErrEmbedderRequired indicates a nil embedder was passed.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrNormalizerRequired indicates a nil normalizer was passed.
	ErrNormalizerRequired = errors.New("normalizer is required")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidBatchSize indicates a non-positive batch size.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")
)
