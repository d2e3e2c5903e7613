package workspace

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotInitialized = errors.New("workspace not initialized")
	ErrConflict       = errors.New("workspace already initialized with different settings")
	ErrInvalidSpec    = errors.New("invalid workspace spec")
)

// ConflictError names every persisted value that disagrees with the request.
type ConflictError struct {
	Workspace string
	Conflicts []Change
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s: existing %s, requested %s", c.Field, c.Old, c.New))
	}
	return fmt.Sprintf("%s at %s (%s); overwrite to replace", ErrConflict, e.Workspace, strings.Join(parts, "; "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
