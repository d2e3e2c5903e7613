package instances

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest = errors.New("invalid run request")
	ErrInvalidMount   = errors.New("invalid mount")
)

// LaunchError is returned when a run container cannot be created or started.
type LaunchError struct {
	Image   string
	Command []string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s with %q: %v", e.Image, strings.Join(e.Command, " "), e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
