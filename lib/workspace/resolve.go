package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nyunai/nyun/lib/paths"
)

// Paths is a resolved (workspace, custom data) pair. Both are absolute.
type Paths struct {
	Workspace  string
	CustomData string
}

// ResolvePaths applies the defaulting rules: an absolute argument is cleaned
// and used as-is; a relative or empty workspace is taken relative to cwd; a
// relative custom data path is taken relative to the workspace; an empty one
// becomes <workspace>/custom_data.
func ResolvePaths(cwd, workspaceArg, customDataArg string) (Paths, error) {
	if !filepath.IsAbs(cwd) {
		return Paths{}, fmt.Errorf("working directory must be absolute: %q", cwd)
	}

	ws := filepath.Clean(cwd)
	switch {
	case workspaceArg == "":
	case filepath.IsAbs(workspaceArg):
		ws = filepath.Clean(workspaceArg)
	default:
		ws = filepath.Join(cwd, workspaceArg)
	}

	cd := paths.New(ws).DefaultCustomData()
	switch {
	case customDataArg == "":
	case filepath.IsAbs(customDataArg):
		cd = filepath.Clean(customDataArg)
	default:
		cd = filepath.Join(ws, customDataArg)
	}

	return Paths{Workspace: ws, CustomData: cd}, nil
}

// Discover walks from start up to the filesystem root and returns the first
// directory holding a workspace spec.
func Discover(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", start, err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		_, err := os.Stat(paths.New(dir).SpecFile())
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat workspace spec: %w", err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no workspace spec found from %s", ErrNotInitialized, start)
		}
		dir = parent
	}
}
