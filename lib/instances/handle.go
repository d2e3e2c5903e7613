package instances

import (
	"context"
	"fmt"
	"sync"

	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/images"
	"github.com/nyunai/nyun/lib/runtime"
)

// Handle is a launched run container.
type Handle struct {
	Name    string
	Kind    extensions.Kind
	Image   *images.Ref
	Command []string

	container runtime.Container

	mu    sync.Mutex
	state State
}

// ID returns the runtime container ID.
func (h *Handle) ID() string {
	return h.container.ID()
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Wait blocks until the container exits. A non-zero exit code is returned
// without error; the state is completed on exit 0 and failed otherwise.
func (h *Handle) Wait(ctx context.Context) (int64, error) {
	code, err := h.container.Wait(ctx)
	if err != nil {
		if ctx.Err() == nil {
			h.setState(StateFailed)
		}
		return code, fmt.Errorf("wait for %s: %w", h.Name, err)
	}

	if code == 0 {
		h.setState(StateCompleted)
	} else {
		h.setState(StateFailed)
	}
	return code, nil
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
}
