package sim

import "errors"

// Construction errors. Returned before any state is mutated.
var (
	// ErrInvalidProfile indicates a job profile whose fields violate its variant's constraints.
	ErrInvalidProfile = errors.New("invalid job profile")

	// ErrInvalidJob indicates a job built with bad arguments or an unrecognized profile.
	ErrInvalidJob = errors.New("invalid job")

	// ErrInvalidPlatform indicates a platform or host that cannot be built as described.
	ErrInvalidPlatform = errors.New("invalid platform")
)

// ErrInvalidState indicates a privileged transition whose precondition does not hold.
// It signals a bug in the driving engine and is never retried.
var ErrInvalidState = errors.New("invalid state transition")
