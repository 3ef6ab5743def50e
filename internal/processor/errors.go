package processor

import "errors"

// Sentinel errors for the two failure classes the engine can report.
// Parameter input never produces an error (values are clamped instead);
// these cover construction and frame-contract violations only.
var (
	// ErrConfig indicates invalid construction arguments (zero frame
	// length, zero channels, unsupported sample rate). Not recoverable
	// by retry.
	ErrConfig = errors.New("invalid processor configuration")

	// ErrFrameLength indicates a Process call with frames that do not
	// match the configured length or channel count. This is a caller
	// bug in the surrounding I/O layer, not a runtime condition.
	ErrFrameLength = errors.New("frame length contract violation")
)
