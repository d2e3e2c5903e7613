// Package extensions maps extension kinds to the container images they need
// and resolves which image runs a given algorithm.
package extensions

import (
	"fmt"
	"slices"

	"github.com/nyunai/nyun/lib/images"
	"github.com/samber/lo"
)

const (
	kompressRepository = "nyunadmin/nyun_kompress"
	adaptRepository    = "nyunadmin/adapt"
)

type entry struct {
	images    []*images.Ref
	overrides map[Algorithm]*images.Ref
}

// Catalog is the static per-kind image table. Images are interned through the
// registry passed to NewCatalog, so kinds sharing an image share its *Ref.
type Catalog struct {
	entries map[Kind]entry
}

// NewCatalog builds the catalog, interning every image in reg.
func NewCatalog(reg *images.Registry) *Catalog {
	kompress := func(tag string) *images.Ref { return reg.MustIntern(kompressRepository, tag) }

	return &Catalog{entries: map[Kind]entry{
		Vision: {
			images: []*images.Ref{kompress("main_kompress"), kompress("mmrazor")},
			overrides: map[Algorithm]*images.Ref{
				MMRazor: kompress("mmrazor"),
			},
		},
		TextGeneration: {
			images: []*images.Ref{
				kompress("autoawq"),
				kompress("flap"),
				kompress("mlcllm"),
				kompress("tensorrtllm"),
				kompress("exllama"),
			},
			overrides: map[Algorithm]*images.Ref{
				AutoAWQ:     kompress("autoawq"),
				FLAP:        kompress("flap"),
				MLCLLM:      kompress("mlcllm"),
				TensorRTLLM: kompress("tensorrtllm"),
				ExLlama:     kompress("exllama"),
			},
		},
		Adapt: {
			images: []*images.Ref{reg.MustIntern(adaptRepository, "february")},
		},
	}}
}

// Expand resolves pseudo-kinds: All yields every concrete kind, None yields
// nothing. The result is deduplicated and in catalog order.
func Expand(requested ...Kind) ([]Kind, error) {
	set := make(map[Kind]bool)
	for _, k := range requested {
		switch {
		case k == All:
			for _, c := range Kinds {
				set[c] = true
			}
		case k == None:
		case k.Concrete():
			set[k] = true
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
	}
	return lo.Filter(Kinds, func(k Kind, _ int) bool { return set[k] }), nil
}

// EnabledMap returns a map total over the concrete kinds. All wins over
// everything, then None; otherwise requested kinds are unioned onto an
// all-false base.
func EnabledMap(requested ...Kind) (map[Kind]bool, error) {
	for _, k := range requested {
		if !k.Concrete() && k != All && k != None {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
	}

	enabled := make(map[Kind]bool, len(Kinds))
	for _, k := range Kinds {
		enabled[k] = false
	}

	switch {
	case slices.Contains(requested, All):
		for _, k := range Kinds {
			enabled[k] = true
		}
	case slices.Contains(requested, None):
	default:
		for _, k := range requested {
			enabled[k] = true
		}
	}
	return enabled, nil
}

// Normalize returns a total map over the concrete kinds. Missing keys are
// false and pseudo-kinds are dropped.
func Normalize(m map[Kind]bool) map[Kind]bool {
	out := make(map[Kind]bool, len(Kinds))
	for _, k := range Kinds {
		out[k] = m[k]
	}
	return out
}

// MapsDiffer reports whether two enabled maps differ after normalization.
func MapsDiffer(a, b map[Kind]bool) bool {
	na, nb := Normalize(a), Normalize(b)
	for _, k := range Kinds {
		if na[k] != nb[k] {
			return true
		}
	}
	return false
}

// EnabledKinds returns the enabled concrete kinds in catalog order.
func EnabledKinds(m map[Kind]bool) []Kind {
	return lo.Filter(Kinds, func(k Kind, _ int) bool { return m[k] })
}

// RequiredImages returns the images kind needs installed.
func (c *Catalog) RequiredImages(kind Kind) ([]*images.Ref, error) {
	e, ok := c.entries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return slices.Clone(e.images), nil
}

// ImagesFor returns the distinct images required by the enabled kinds.
func (c *Catalog) ImagesFor(enabled map[Kind]bool) []*images.Ref {
	var refs []*images.Ref
	for _, k := range EnabledKinds(enabled) {
		refs = append(refs, c.entries[k].images...)
	}
	return lo.Uniq(refs)
}

// ImageFor resolves the image that runs algorithm on kind. With no algorithm
// the kind's only image is returned.
func (c *Catalog) ImageFor(kind Kind, algorithm *Algorithm) (*images.Ref, error) {
	e, ok := c.entries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if algorithm != nil {
		ref, ok := e.overrides[*algorithm]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoImageForAlgorithm, *algorithm)
		}
		return ref, nil
	}

	if len(e.images) != 1 {
		return nil, fmt.Errorf("%w: %s has %d images", ErrNoDefaultImage, kind, len(e.images))
	}
	return e.images[0], nil
}

// OwnerOf returns the enabled kind whose override table maps algorithm.
func (c *Catalog) OwnerOf(algorithm Algorithm, enabled map[Kind]bool) (Kind, error) {
	for _, k := range EnabledKinds(enabled) {
		if _, ok := c.entries[k].overrides[algorithm]; ok {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoImageForAlgorithm, algorithm)
}
