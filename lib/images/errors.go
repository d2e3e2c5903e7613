package images

import "errors"

// ErrInvalidName is returned for references that cannot be canonicalized.
var ErrInvalidName = errors.New("invalid image name")
