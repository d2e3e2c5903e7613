// Package workspace persists the per-project workspace spec and reconciles it
// against the extensions requested by init.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/paths"
)

// Store reads and writes workspace specs.
type Store struct {
	log *slog.Logger
}

// NewStore creates a store. A nil logger falls back to slog.Default().
func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{log: log}
}

// Read loads the spec of the workspace at workspacePath.
func (s *Store) Read(workspacePath string) (*Spec, error) {
	p := paths.New(workspacePath)
	data, err := os.ReadFile(p.SpecFile())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotInitialized, workspacePath)
		}
		return nil, fmt.Errorf("read workspace spec: %w", err)
	}

	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return f.toSpec()
}

// LoadOrInit creates the workspace spec or checks the existing one against the
// request. Without overwrite any difference in custom data path or enabled
// extensions is a *ConflictError; with overwrite the differing fields are
// replaced and returned as changes.
func (s *Store) LoadOrInit(ctx context.Context, workspacePath, customDataPath string, requested []extensions.Kind, overwrite bool) (*Spec, []Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	enabled, err := extensions.EnabledMap(requested...)
	if err != nil {
		return nil, nil, err
	}

	p := paths.New(workspacePath)
	existing, err := s.Read(workspacePath)
	if errors.Is(err, ErrNotInitialized) {
		spec := &Spec{
			WorkspacePath:  workspacePath,
			CustomDataPath: customDataPath,
			LogPath:        p.LogFile(),
			Extensions:     enabled,
		}
		if err := s.prepare(p, spec); err != nil {
			return nil, nil, err
		}
		if err := writeSpec(p, spec); err != nil {
			return nil, nil, err
		}
		s.log.Info("created new workspace spec", "workspace", workspacePath, "custom_data", customDataPath, "extensions", formatExtensions(enabled))
		return spec, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("workspace spec found", "workspace", workspacePath)

	changes := diff(existing, customDataPath, enabled)
	if len(changes) == 0 {
		return existing, nil, nil
	}
	if !overwrite {
		return nil, nil, &ConflictError{Workspace: workspacePath, Conflicts: changes}
	}

	updated := *existing
	for _, c := range changes {
		switch c.Field {
		case FieldCustomData:
			updated.CustomDataPath = customDataPath
		case FieldExtensions:
			updated.Extensions = enabled
		}
	}
	if err := s.prepare(p, &updated); err != nil {
		return nil, nil, err
	}
	if err := writeSpec(p, &updated); err != nil {
		return nil, nil, err
	}
	for _, c := range changes {
		s.log.Info("workspace spec updated", "field", string(c.Field), "from", c.Old, "to", c.New)
	}
	return &updated, changes, nil
}

func diff(existing *Spec, customDataPath string, enabled map[extensions.Kind]bool) []Change {
	var changes []Change
	if filepath.Clean(existing.CustomDataPath) != filepath.Clean(customDataPath) {
		changes = append(changes, Change{
			Field: FieldCustomData,
			Old:   existing.CustomDataPath,
			New:   customDataPath,
		})
	}
	if extensions.MapsDiffer(existing.Extensions, enabled) {
		changes = append(changes, Change{
			Field: FieldExtensions,
			Old:   formatExtensions(existing.Extensions),
			New:   formatExtensions(enabled),
		})
	}
	return changes
}

// prepare creates the state, custom data and service directories of spec.
func (s *Store) prepare(p *paths.Paths, spec *Spec) error {
	dirs := []string{p.ServicesDir(), spec.CustomDataPath}
	for _, kind := range spec.EnabledKinds() {
		dir, err := p.ServiceDir(kind.Family())
		if err != nil {
			return err
		}
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func writeSpec(p *paths.Paths, spec *Spec) error {
	data, err := yaml.Marshal(spec.toFile())
	if err != nil {
		return fmt.Errorf("marshal workspace spec: %w", err)
	}

	// Write to temp file first
	tempPath := p.SpecFile() + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write temp workspace spec: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, p.SpecFile()); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename workspace spec: %w", err)
	}
	return nil
}
