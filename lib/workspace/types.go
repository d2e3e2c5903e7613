package workspace

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nyunai/nyun/lib/extensions"
)

// Spec is the persisted configuration of a workspace.
type Spec struct {
	WorkspacePath  string
	CustomDataPath string
	LogPath        string
	// Extensions is total over the concrete kinds.
	Extensions map[extensions.Kind]bool
}

// Enabled reports whether kind is enabled.
func (s *Spec) Enabled(kind extensions.Kind) bool {
	return s.Extensions[kind]
}

// EnabledKinds returns the enabled kinds in catalog order.
func (s *Spec) EnabledKinds() []extensions.Kind {
	return extensions.EnabledKinds(s.Extensions)
}

// Field names a persisted spec field.
type Field string

const (
	FieldCustomData Field = "custom data path"
	FieldExtensions Field = "extensions"
)

// Change is one field that differs between the persisted and requested spec.
type Change struct {
	Field Field
	Old   string
	New   string
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Field, c.Old, c.New)
}

func formatExtensions(m map[extensions.Kind]bool) string {
	kinds := extensions.EnabledKinds(m)
	if len(kinds) == 0 {
		return string(extensions.None)
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// specFile is the on-disk layout of workspace.spec.
type specFile struct {
	Workspace  pathSection     `json:"Workspace"`
	CustomData pathSection     `json:"CustomData"`
	Logs       pathSection     `json:"Logs"`
	Extensions map[string]flag `json:"Extensions"`
}

type pathSection struct {
	Path string `json:"path"`
}

// flag is a boolean that also accepts the "True"/"False" strings written by
// older releases.
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("extension flag must be a boolean: %s", data)
	}
	switch strings.ToLower(s) {
	case "true":
		*f = true
	case "false":
		*f = false
	default:
		return fmt.Errorf("extension flag must be a boolean: %q", s)
	}
	return nil
}

func (s *Spec) toFile() specFile {
	exts := make(map[string]flag, len(extensions.Kinds))
	for _, k := range extensions.Kinds {
		exts[string(k)] = flag(s.Extensions[k])
	}
	return specFile{
		Workspace:  pathSection{Path: s.WorkspacePath},
		CustomData: pathSection{Path: s.CustomDataPath},
		Logs:       pathSection{Path: s.LogPath},
		Extensions: exts,
	}
}

func (f specFile) toSpec() (*Spec, error) {
	exts := make(map[extensions.Kind]bool, len(extensions.Kinds))
	for key, enabled := range f.Extensions {
		kind, err := extensions.ParseKind(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
		if !kind.Concrete() {
			return nil, fmt.Errorf("%w: pseudo extension %q persisted", ErrInvalidSpec, key)
		}
		exts[kind] = bool(enabled)
	}
	if f.Workspace.Path == "" {
		return nil, fmt.Errorf("%w: missing workspace path", ErrInvalidSpec)
	}
	return &Spec{
		WorkspacePath:  f.Workspace.Path,
		CustomDataPath: f.CustomData.Path,
		LogPath:        f.Logs.Path,
		Extensions:     extensions.Normalize(exts),
	}, nil
}
