package cluster

import "errors"

var (
	// ErrInvalidThreshold indicates a similarity threshold outside [0,1].
	ErrInvalidThreshold = errors.New("similarity threshold must be between 0 and 1")

	// ErrInvalidTolerance indicates a length tolerance outside [0,1].
	ErrInvalidTolerance = errors.New("length tolerance must be between 0 and 1")
)
