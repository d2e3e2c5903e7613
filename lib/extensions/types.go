package extensions

import (
	"fmt"
	"strings"
)

// Kind is an extension kind. Vision, TextGeneration and Adapt are concrete;
// All and None are input-only and never persisted.
type Kind string

const (
	Vision         Kind = "vision"
	TextGeneration Kind = "text-generation"
	Adapt          Kind = "adapt"

	All  Kind = "all"
	None Kind = "none"
)

// Kinds lists the concrete kinds in catalog order.
var Kinds = []Kind{Vision, TextGeneration, Adapt}

var kindAliases = map[string]Kind{
	"kompress-vision":          Vision,
	"kompress-text-generation": TextGeneration,
}

// ParseKind parses a kind name, accepting the long kompress-* aliases.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch k := Kind(s); k {
	case Vision, TextGeneration, Adapt, All, None:
		return k, nil
	}
	if k, ok := kindAliases[s]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ParseKinds parses each name, splitting comma separated values.
func ParseKinds(values ...string) ([]Kind, error) {
	var kinds []Kind
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			k, err := ParseKind(part)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// Concrete reports whether k is a real extension rather than a pseudo-kind.
func (k Kind) Concrete() bool {
	switch k {
	case Vision, TextGeneration, Adapt:
		return true
	}
	return false
}

// Family names the external service directory used as the container working
// directory for the kind.
func (k Kind) Family() string {
	switch k {
	case Vision, TextGeneration:
		return "kompress"
	case Adapt:
		return "adapt"
	}
	return ""
}

// Algorithm is a processing method declared by a recipe.
type Algorithm string

const (
	AutoAWQ     Algorithm = "AutoAWQ"
	FLAP        Algorithm = "FLAP"
	MLCLLM      Algorithm = "MLCLLM"
	TensorRTLLM Algorithm = "TensorRTLLM"
	ExLlama     Algorithm = "ExLlama"
	MMRazor     Algorithm = "MMRazor"
)

// Algorithms lists every recognized algorithm.
var Algorithms = []Algorithm{AutoAWQ, FLAP, MLCLLM, TensorRTLLM, ExLlama, MMRazor}

// ParseAlgorithm parses an algorithm name exactly as declared in a recipe.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}
