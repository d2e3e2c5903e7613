package instances

import (
	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/images"
	"github.com/nyunai/nyun/lib/workspace"
)

// Fixed in-container paths.
const (
	UserDataPath   = "/user_data"
	CustomDataRoot = "/custom_data"
	ScriptDir      = "/scripts"
	WorkingDir     = "/workspace"

	// EnvPrefix marks workspace .env keys forwarded into the container.
	EnvPrefix = "NYUN_"
)

// State is the lifecycle state of a run.
type State string

const (
	StateResolved  State = "resolved"
	StateLaunched  State = "launched"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// RunRequest is a resolved run: which recipe to execute, in which workspace,
// on which extension image.
type RunRequest struct {
	ScriptPath string
	Spec       *workspace.Spec
	Kind       extensions.Kind
	Image      *images.Ref
}
