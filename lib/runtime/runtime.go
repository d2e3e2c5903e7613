// Package runtime is the narrow boundary between nyun and the container
// engine. Everything above it talks to Runtime; the Docker engine is the only
// production implementation.
package runtime

import "context"

// Runtime pulls, removes and runs container images.
type Runtime interface {
	// ImageExists reports whether image is present locally and not dangling.
	ImageExists(ctx context.Context, image string) (bool, error)
	// PullImage fetches image, reporting aggregated byte progress to onProgress.
	PullImage(ctx context.Context, image string, auth Auth, onProgress func(PullProgress)) error
	// RemoveImage removes image. A missing image is not an error.
	RemoveImage(ctx context.Context, image string) error
	// RunContainer creates and starts a container.
	RunContainer(ctx context.Context, spec ContainerSpec) (Container, error)
	Close() error
}

// Container is a started container.
type Container interface {
	ID() string
	// Wait blocks until the container exits and returns its exit code.
	Wait(ctx context.Context) (int64, error)
}

// Auth carries registry credentials through to the engine.
type Auth struct {
	Username      string
	Password      string
	ServerAddress string
}

// Empty reports whether no credentials are set.
func (a Auth) Empty() bool {
	return a.Username == "" && a.Password == ""
}

// PullProgress is the byte progress of a pull, summed over all layers.
type PullProgress struct {
	Current int64
	Total   int64
}

// Mount is a host bind mount.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// ContainerSpec describes a container to run.
type ContainerSpec struct {
	Name       string
	Image      string
	Cmd        []string
	Env        []string
	WorkingDir string
	Mounts     []Mount
	// GPUs requests every GPU on the host.
	GPUs       bool
	AutoRemove bool
}
