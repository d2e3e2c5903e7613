package images

import (
	"fmt"
	"sync"

	"github.com/distribution/reference"
)

// DefaultTag is used when a reference carries no tag.
const DefaultTag = "latest"

// Ref is a canonical (repository, tag) image identity. Refs obtained from the
// same Registry are unique per pair, so pointer equality is identity; the
// value itself is comparable and safe to use as a map key.
type Ref struct {
	repository string // fully qualified, e.g. docker.io/nyunadmin/adapt
	tag        string
}

// Repository returns the fully qualified repository.
// Example: "docker.io/nyunadmin/adapt"
func (r Ref) Repository() string {
	return r.repository
}

// Tag returns the tag, e.g. "february".
func (r Ref) Tag() string {
	return r.tag
}

// Name returns the fully qualified reference used with registries.
// Example: "docker.io/nyunadmin/adapt:february"
func (r Ref) Name() string {
	return r.repository + ":" + r.tag
}

// String returns the familiar reference used with the Docker engine.
// Example: "nyunadmin/adapt:february"
func (r Ref) String() string {
	named, err := reference.ParseNamed(r.Name())
	if err != nil {
		return r.Name()
	}
	return reference.FamiliarString(named)
}

// Registry interns image identities for the lifetime of the process. It is
// append-only and safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	refs map[Ref]*Ref
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{refs: make(map[Ref]*Ref)}
}

// Intern returns the unique *Ref for (repository, tag), creating it on first
// use. The repository is canonicalized, so "nyunadmin/adapt" and
// "docker.io/nyunadmin/adapt" are one identity. An empty tag means "latest".
func (r *Registry) Intern(repository, tag string) (*Ref, error) {
	key, err := canonical(repository, tag)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ref, ok := r.refs[key]; ok {
		return ref, nil
	}
	ref := &Ref{repository: key.repository, tag: key.tag}
	r.refs[key] = ref
	return ref, nil
}

// MustIntern is Intern for static tables. It panics on an invalid reference.
func (r *Registry) MustIntern(repository, tag string) *Ref {
	ref, err := r.Intern(repository, tag)
	if err != nil {
		panic(err)
	}
	return ref
}

// Parse interns a full reference such as "nyunadmin/adapt:february".
// Digest references are rejected.
func (r *Registry) Parse(s string) (*Ref, error) {
	named, err := reference.ParseNormalizedNamed(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidName, s, err)
	}
	if _, ok := named.(reference.Digested); ok {
		return nil, fmt.Errorf("%w: %q: digest references are not supported", ErrInvalidName, s)
	}
	tag := DefaultTag
	if t, ok := named.(reference.Tagged); ok {
		tag = t.Tag()
	}
	return r.Intern(named.Name(), tag)
}

// Len returns the number of interned identities.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.refs)
}

func canonical(repository, tag string) (Ref, error) {
	named, err := reference.ParseNormalizedNamed(repository)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q: %v", ErrInvalidName, repository, err)
	}
	if _, ok := named.(reference.Tagged); ok {
		return Ref{}, fmt.Errorf("%w: %q: repository must not carry a tag", ErrInvalidName, repository)
	}
	if _, ok := named.(reference.Digested); ok {
		return Ref{}, fmt.Errorf("%w: %q: repository must not carry a digest", ErrInvalidName, repository)
	}

	if tag == "" {
		tag = DefaultTag
	}
	tagged, err := reference.WithTag(named, tag)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: tag %q: %v", ErrInvalidName, tag, err)
	}
	return Ref{repository: tagged.Name(), tag: tagged.Tag()}, nil
}
