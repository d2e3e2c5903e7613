package orchestrator

import "errors"

var (
	ErrUnsupportedFile  = errors.New("unsupported recipe file, expected .yaml, .yml or .json")
	ErrMissingAlgorithm = errors.New("recipe does not declare an algorithm")
	ErrInvalidRecipe    = errors.New("invalid recipe")
)
