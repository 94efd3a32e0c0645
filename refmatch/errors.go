package refmatch

import "errors"

var (
	// ErrEngineRequired indicates a nil similarity engine was passed.
	ErrEngineRequired = errors.New("similarity engine is required")

	// ErrNormalizerRequired indicates a nil normalizer was passed.
	ErrNormalizerRequired = errors.New("normalizer is required")
)
