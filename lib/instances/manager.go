// Package instances turns a resolved run request into a container on the
// runtime: mount layout, device requests and environment.
package instances

import (
	"context"
	"fmt"
	"time"

	"github.com/nrednav/cuid2"
	"github.com/nyunai/nyun/lib/devices"
	"github.com/nyunai/nyun/lib/logger"
	nyunotel "github.com/nyunai/nyun/lib/otel"
	"github.com/nyunai/nyun/lib/paths"
	"github.com/nyunai/nyun/lib/runtime"
)

// Manager launches run containers.
type Manager interface {
	// Run launches the container for req. There are no retries.
	Run(ctx context.Context, req RunRequest) (*Handle, error)
}

type manager struct {
	runtime runtime.Runtime
	devices devices.Discoverer
	metrics *nyunotel.RunMetrics
}

// NewManager creates an instance manager. discoverer and metrics may be nil;
// without a discoverer no accelerators are requested.
func NewManager(rt runtime.Runtime, discoverer devices.Discoverer, metrics *nyunotel.RunMetrics) Manager {
	return &manager{
		runtime: rt,
		devices: discoverer,
		metrics: metrics,
	}
}

// command is the entrypoint every extension image understands.
func command(scriptPath string) []string {
	return []string{"python", "main.py", "--yaml_path", scriptTarget(scriptPath)}
}

func (m *manager) Run(ctx context.Context, req RunRequest) (*Handle, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if req.Spec == nil || req.Image == nil || !req.Kind.Concrete() || req.ScriptPath == "" {
		return nil, fmt.Errorf("%w: spec, image, concrete kind and script are required", ErrInvalidRequest)
	}

	mounts, err := buildMounts(req.Spec, req.Kind, req.ScriptPath)
	if err != nil {
		return nil, err
	}

	env, err := readEnv(paths.New(req.Spec.WorkspacePath).EnvFile())
	if err != nil {
		return nil, err
	}

	spec := runtime.ContainerSpec{
		Name:       fmt.Sprintf("nyun-%s-%s", req.Kind, cuid2.Generate()),
		Image:      req.Image.String(),
		Cmd:        command(req.ScriptPath),
		Env:        env,
		WorkingDir: WorkingDir,
		Mounts:     mounts,
		GPUs:       m.hasGPUs(ctx),
		AutoRemove: true,
	}

	handle := &Handle{
		Name:    spec.Name,
		Kind:    req.Kind,
		Image:   req.Image,
		Command: spec.Cmd,
		state:   StateResolved,
	}

	log.Info("launching container", "name", spec.Name, "image", spec.Image, "extension", req.Kind, "gpus", spec.GPUs)
	c, err := m.runtime.RunContainer(ctx, spec)
	if err != nil {
		handle.setState(StateFailed)
		m.metrics.RecordLaunch(ctx, string(req.Kind), string(StateFailed), start)
		log.Error("container launch failed", "name", spec.Name, "image", spec.Image, "error", err)
		return nil, &LaunchError{Image: spec.Image, Command: spec.Cmd, Err: err}
	}

	handle.container = c
	handle.setState(StateLaunched)
	m.metrics.RecordLaunch(ctx, string(req.Kind), string(StateLaunched), start)
	log.Info("container launched", "name", spec.Name, "id", c.ID())
	return handle, nil
}

func (m *manager) hasGPUs(ctx context.Context) bool {
	if m.devices == nil {
		return false
	}
	gpus, err := m.devices.DiscoverGPUs()
	if err != nil {
		logger.FromContext(ctx).Warn("accelerator discovery failed, running without GPUs", "error", err)
		return false
	}
	return len(gpus) > 0
}
