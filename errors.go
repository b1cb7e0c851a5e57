package netsynth

import (
	"github.com/pkg/errors"
)

// Sentinel errors returned (wrapped, so test with errors.Is) by the
// intent parser, the generator and the failure simulator.
var (
	// ErrInvalidParameterRange flags a count, hop limit or connection
	// requirement outside of its admissible range.
	ErrInvalidParameterRange = errors.New("parameter out of range")

	// ErrContradictoryIntent flags an intent whose requirements cannot be met together.
	ErrContradictoryIntent = errors.New("contradictory intent")

	// ErrUnknownElement flags a failure element naming neither a device nor a link.
	ErrUnknownElement = errors.New("unknown topology element")

	// ErrInconsistentTopology flags a topology whose links reference missing devices
	// or carry non-positive costs.
	ErrInconsistentTopology = errors.New("inconsistent topology")
)

// rangeError wraps ErrInvalidParameterRange with the offending field and bounds
func rangeError(field string, value, lo, hi int) error {
	return errors.Wrapf(ErrInvalidParameterRange, "%s=%d not in [%d,%d]", field, value, lo, hi)
}
