package waterfall

import "errors"

var (
	// ErrInvalidThreshold indicates a score threshold outside [0,1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")

	// ErrBandOrder indicates score bands that are not strictly ordered.
	ErrBandOrder = errors.New("score bands must be strictly increasing")

	// ErrInvalidFrequency indicates a non-positive frequency threshold.
	ErrInvalidFrequency = errors.New("frequency threshold must be positive")

	// ErrInvalidLength indicates a non-positive length threshold.
	ErrInvalidLength = errors.New("length threshold must be positive")

	// ErrInvalidKeywordRule indicates a keyword rule without keywords or
	// with an unknown action.
	ErrInvalidKeywordRule = errors.New("keyword rule must have keywords and a valid action")

	// ErrNilCluster indicates a nil cluster or a cluster without a leader.
	ErrNilCluster = errors.New("cluster with a leader is required")
)
