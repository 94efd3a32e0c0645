package similarity

import "errors"

var (
	// ErrNormalizerRequired indicates a nil normalizer was passed.
	ErrNormalizerRequired = errors.New("normalizer is required")

	// ErrNoWeights indicates an empty signal weight map.
	ErrNoWeights = errors.New("at least one signal weight is required")

	// ErrInvalidWeight indicates a negative signal weight or an unknown signal.
	ErrInvalidWeight = errors.New("invalid signal weight")

	// ErrWeightSum indicates configured weights do not sum to 1.0.
	ErrWeightSum = errors.New("signal weights must sum to 1.0")
)
