package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
)

// DockerOptions configures the Docker runtime.
type DockerOptions struct {
	// Host overrides DOCKER_HOST when set.
	Host string
}

// DockerOption mutates DockerOptions.
type DockerOption func(*DockerOptions)

// WithHost points the client at a specific engine socket.
func WithHost(host string) DockerOption {
	return func(o *DockerOptions) {
		o.Host = host
	}
}

// Docker implements Runtime on the Docker engine API.
type Docker struct {
	cli *client.Client
}

var _ Runtime = (*Docker)(nil)

// NewDocker connects to the engine configured by the environment, negotiating
// the API version on first use.
func NewDocker(opts ...DockerOption) (*Docker, error) {
	o := &DockerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	clientOpts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if o.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(o.Host))
	}

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return &Docker{cli: cli}, nil
}

func (d *Docker) ImageExists(ctx context.Context, ref string) (bool, error) {
	list, err := d.cli.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(
			filters.Arg("reference", ref),
			filters.Arg("dangling", "false"),
		),
	})
	if err != nil {
		return false, classify(err)
	}
	return len(list) > 0, nil
}

func (d *Docker) PullImage(ctx context.Context, ref string, auth Auth, onProgress func(PullProgress)) error {
	opts := image.PullOptions{}
	if !auth.Empty() {
		encoded, err := registry.EncodeAuthConfig(registry.AuthConfig{
			Username:      auth.Username,
			Password:      auth.Password,
			ServerAddress: auth.ServerAddress,
		})
		if err != nil {
			return fmt.Errorf("encode registry auth: %w", err)
		}
		opts.RegistryAuth = encoded
	}

	rc, err := d.cli.ImagePull(ctx, ref, opts)
	if err != nil {
		return classify(err)
	}
	defer rc.Close()

	return decodePullStream(rc, onProgress)
}

func (d *Docker) RemoveImage(ctx context.Context, ref string) error {
	_, err := d.cli.ImageRemove(ctx, ref, image.RemoveOptions{PruneChildren: true})
	if err != nil && !cerrdefs.IsNotFound(err) {
		return classify(err)
	}
	return nil
}

func (d *Docker) RunContainer(ctx context.Context, spec ContainerSpec) (Container, error) {
	resp, err := d.cli.ContainerCreate(ctx, containerConfig(spec), hostConfig(spec), nil, nil, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("create container: %w", classify(err))
	}

	// Register the wait before starting so an auto-removed container cannot
	// exit and disappear before we are listening.
	waitCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	statusCh, errCh := d.cli.ContainerWait(waitCtx, resp.ID, container.WaitConditionNextExit)

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		cancel()
		if !spec.AutoRemove {
			_ = d.cli.ContainerRemove(context.WithoutCancel(ctx), resp.ID, container.RemoveOptions{Force: true})
		}
		return nil, fmt.Errorf("start container: %w", classify(err))
	}

	return &dockerContainer{
		id:       resp.ID,
		statusCh: statusCh,
		errCh:    errCh,
		cancel:   cancel,
	}, nil
}

func (d *Docker) Close() error {
	return d.cli.Close()
}

type dockerContainer struct {
	id       string
	statusCh <-chan container.WaitResponse
	errCh    <-chan error
	cancel   context.CancelFunc
}

func (c *dockerContainer) ID() string {
	return c.id
}

func (c *dockerContainer) Wait(ctx context.Context) (int64, error) {
	defer c.cancel()

	select {
	case status := <-c.statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return status.StatusCode, fmt.Errorf("wait container: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	case err := <-c.errCh:
		return -1, fmt.Errorf("wait container: %w", classify(err))
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

func containerConfig(spec ContainerSpec) *container.Config {
	return &container.Config{
		Image:      spec.Image,
		Cmd:        spec.Cmd,
		Env:        spec.Env,
		WorkingDir: spec.WorkingDir,
	}
}

func hostConfig(spec ContainerSpec) *container.HostConfig {
	hc := &container.HostConfig{
		AutoRemove: spec.AutoRemove,
	}
	for _, m := range spec.Mounts {
		hc.Mounts = append(hc.Mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	if spec.GPUs {
		hc.Resources.DeviceRequests = []container.DeviceRequest{{
			Count:        -1,
			Capabilities: [][]string{{"gpu"}},
		}}
	}
	return hc
}

// decodePullStream reads the engine's JSON message stream, summing per-layer
// progress into a single total.
func decodePullStream(r io.Reader, onProgress func(PullProgress)) error {
	type layer struct{ current, total int64 }
	layers := make(map[string]*layer)
	var order []string

	dec := json.NewDecoder(r)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode pull stream: %w", err)
		}

		if msg.Error != nil {
			return classifyMessage(msg.Error.Message)
		}

		if msg.ID == "" || onProgress == nil {
			continue
		}
		l, ok := layers[msg.ID]
		if !ok {
			l = &layer{}
			layers[msg.ID] = l
			order = append(order, msg.ID)
		}
		// Extraction reports progress against the same layer; only the
		// download phase is tracked.
		switch msg.Status {
		case "Downloading":
			if msg.Progress == nil {
				continue
			}
			l.current = msg.Progress.Current
			if msg.Progress.Total > 0 {
				l.total = msg.Progress.Total
			}
		case "Download complete", "Pull complete":
			l.current = l.total
		default:
			continue
		}

		var p PullProgress
		for _, id := range order {
			p.Current += layers[id].current
			p.Total += layers[id].total
		}
		onProgress(p)
	}
}

// classify maps engine errors onto the runtime sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case cerrdefs.IsNotFound(err), cerrdefs.IsUnauthorized(err), cerrdefs.IsPermissionDenied(err):
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	case client.IsErrConnectionFailed(err):
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return err
}

// classifyMessage maps an error message embedded in a pull stream.
func classifyMessage(message string) error {
	lower := strings.ToLower(message)
	for _, marker := range []string{"not found", "unauthorized", "denied", "forbidden", "does not exist"} {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", ErrAccessDenied, message)
		}
	}
	return errors.New(message)
}
