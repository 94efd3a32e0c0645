package pipeline

import "errors"

var (
	// ErrNormalizerRequired indicates a nil normalizer was passed.
	ErrNormalizerRequired = errors.New("normalizer is required")

	// ErrClustererRequired indicates a nil clustering engine was passed.
	ErrClustererRequired = errors.New("clustering engine is required")

	// ErrDeciderRequired indicates a nil decision engine was passed.
	ErrDeciderRequired = errors.New("decision engine is required")
)
