package extensions

import "errors"

var (
	ErrUnknownKind         = errors.New("unknown extension")
	ErrUnknownAlgorithm    = errors.New("unknown algorithm")
	ErrNoImageForAlgorithm = errors.New("no image found for algorithm")
	ErrNoDefaultImage      = errors.New("extension has no single default image")
)
