// Package runtimetest provides an in-memory runtime.Runtime for tests.
package runtimetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/nyunai/nyun/lib/runtime"
)

// Fake is a scriptable runtime.Runtime. Images listed in Local are treated as
// present; images in PullErrors fail to pull with the given error.
type Fake struct {
	mu sync.Mutex

	Local      map[string]bool
	PullErrors map[string]error
	RunErr     error
	ExitCode   int64

	Pulled  []string
	Removed []string
	Runs    []runtime.ContainerSpec
}

var _ runtime.Runtime = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		Local:      make(map[string]bool),
		PullErrors: make(map[string]error),
	}
}

func (f *Fake) ImageExists(_ context.Context, image string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Local[image], nil
}

func (f *Fake) PullImage(ctx context.Context, image string, _ runtime.Auth, onProgress func(runtime.PullProgress)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	err := f.PullErrors[image]
	f.mu.Unlock()
	if err != nil {
		return err
	}

	if onProgress != nil {
		onProgress(runtime.PullProgress{Current: 512, Total: 1024})
		onProgress(runtime.PullProgress{Current: 1024, Total: 1024})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pulled = append(f.Pulled, image)
	f.Local[image] = true
	return nil
}

func (f *Fake) RemoveImage(_ context.Context, image string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, image)
	delete(f.Local, image)
	return nil
}

func (f *Fake) RunContainer(_ context.Context, spec runtime.ContainerSpec) (runtime.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RunErr != nil {
		return nil, f.RunErr
	}
	f.Runs = append(f.Runs, spec)
	return &container{id: fmt.Sprintf("fake-%d", len(f.Runs)), exit: f.ExitCode}, nil
}

func (f *Fake) Close() error {
	return nil
}

type container struct {
	id   string
	exit int64
}

func (c *container) ID() string {
	return c.id
}

func (c *container) Wait(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	return c.exit, nil
}
