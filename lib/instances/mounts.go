package instances

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/paths"
	"github.com/nyunai/nyun/lib/runtime"
	"github.com/nyunai/nyun/lib/workspace"
)

// scriptTarget is where the recipe is mounted, keeping its extension.
func scriptTarget(scriptPath string) string {
	return path.Join(ScriptDir, "recipe"+strings.ToLower(filepath.Ext(scriptPath)))
}

// buildMounts returns the four mounts of a run: the workspace (rw), the custom
// data directory, the recipe and the extension family's service directory.
func buildMounts(spec *workspace.Spec, kind extensions.Kind, scriptPath string) ([]runtime.Mount, error) {
	serviceDir, err := paths.New(spec.WorkspacePath).ServiceDir(kind.Family())
	if err != nil {
		return nil, err
	}

	mounts := []runtime.Mount{
		{Source: spec.WorkspacePath, Target: UserDataPath},
		{Source: spec.CustomDataPath, Target: path.Join(CustomDataRoot, string(kind)), ReadOnly: true},
		{Source: scriptPath, Target: scriptTarget(scriptPath), ReadOnly: true},
		{Source: serviceDir, Target: WorkingDir, ReadOnly: true},
	}
	if err := validateMounts(mounts); err != nil {
		return nil, err
	}
	return mounts, nil
}

func validateMounts(mounts []runtime.Mount) error {
	seen := make(map[string]bool, len(mounts))
	for _, m := range mounts {
		if m.Source == "" {
			return fmt.Errorf("%w: empty source for %s", ErrInvalidMount, m.Target)
		}
		if !filepath.IsAbs(m.Source) {
			return fmt.Errorf("%w: source %q must be absolute", ErrInvalidMount, m.Source)
		}
		if !path.IsAbs(m.Target) {
			return fmt.Errorf("%w: target %q must be absolute", ErrInvalidMount, m.Target)
		}
		if seen[m.Target] {
			return fmt.Errorf("%w: duplicate mount path %s", ErrInvalidMount, m.Target)
		}
		seen[m.Target] = true
	}
	return nil
}
