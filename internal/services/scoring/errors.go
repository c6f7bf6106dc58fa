package scoring

import "errors"

var (
	// ErrInsufficientData marks a window shorter than a scorer's minimum.
	// The aggregator omits the scorer and redistributes its weight.
	ErrInsufficientData = errors.New("scoring: insufficient data")

	// ErrMalformedInput marks an input set where every unit failed schema
	// validation. Individually malformed units are dropped, not fatal.
	ErrMalformedInput = errors.New("scoring: malformed input")
)
