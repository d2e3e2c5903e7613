package runtime

import "errors"

var (
	// ErrAccessDenied is returned when the engine or registry reports the
	// image as not found, unauthorized or forbidden.
	ErrAccessDenied = errors.New("image not found or access denied")

	// ErrEngineUnavailable is returned when the engine cannot be reached.
	ErrEngineUnavailable = errors.New("container engine unavailable")
)
