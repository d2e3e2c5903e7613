// Package paths centralizes the on-disk layout below a workspace root.
//
//	<workspace>/
//	  .env                      env bridge (NYUN_* keys)
//	  custom_data/              default custom data directory
//	  .nyunservices/
//	    workspace.spec          persisted workspace spec
//	    zero.log                log file
//	    <family>/               external service directory per extension family
package paths

import (
	"fmt"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

const (
	// ServicesDirName is the hidden directory holding nyun's own state.
	ServicesDirName = ".nyunservices"
	// SpecFileName is the persisted workspace spec.
	SpecFileName = "workspace.spec"
	// LogFileName is the workspace log file.
	LogFileName = "zero.log"
	// EnvFileName is the env bridge file at the workspace root.
	EnvFileName = ".env"
	// DefaultCustomDataDir is used when no custom data path is given.
	DefaultCustomDataDir = "custom_data"
)

// Paths resolves well-known locations below a workspace root.
type Paths struct {
	root string
}

// New creates a Paths for the given workspace root.
func New(workspaceRoot string) *Paths {
	return &Paths{root: workspaceRoot}
}

// Root returns the workspace root.
func (p *Paths) Root() string {
	return p.root
}

// ServicesDir returns <root>/.nyunservices.
func (p *Paths) ServicesDir() string {
	return filepath.Join(p.root, ServicesDirName)
}

// SpecFile returns <root>/.nyunservices/workspace.spec.
func (p *Paths) SpecFile() string {
	return filepath.Join(p.ServicesDir(), SpecFileName)
}

// LogFile returns <root>/.nyunservices/zero.log.
func (p *Paths) LogFile() string {
	return filepath.Join(p.ServicesDir(), LogFileName)
}

// EnvFile returns <root>/.env.
func (p *Paths) EnvFile() string {
	return filepath.Join(p.root, EnvFileName)
}

// DefaultCustomData returns <root>/custom_data.
func (p *Paths) DefaultCustomData() string {
	return filepath.Join(p.root, DefaultCustomDataDir)
}

// ServiceDir returns the external service directory of an extension family.
// The family name is joined with securejoin so it can never escape the
// services directory.
func (p *Paths) ServiceDir(family string) (string, error) {
	if family == "" {
		return "", fmt.Errorf("empty service family")
	}
	dir, err := securejoin.SecureJoin(p.ServicesDir(), family)
	if err != nil {
		return "", fmt.Errorf("resolve service dir %q: %w", family, err)
	}
	return dir, nil
}
