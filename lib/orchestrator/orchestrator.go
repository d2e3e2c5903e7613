// Package orchestrator resolves a recipe to an extension image and hands it
// to the instance manager.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/images"
	"github.com/nyunai/nyun/lib/instances"
	"github.com/nyunai/nyun/lib/logger"
	"github.com/nyunai/nyun/lib/workspace"
)

// SupportedExtensions are the recipe file extensions accepted by Run.
var SupportedExtensions = []string{".yaml", ".yml", ".json"}

// recipe holds the fields nyun reads from a recipe; the rest is passed
// through to the container untouched.
type recipe struct {
	Algorithm string `json:"algorithm"`
}

// Resolution is the outcome of resolving a recipe.
type Resolution struct {
	Algorithm extensions.Algorithm
	Kind      extensions.Kind
	Image     *images.Ref
}

// Orchestrator maps recipes to containers.
type Orchestrator struct {
	catalog   *extensions.Catalog
	instances instances.Manager
}

// New creates an orchestrator.
func New(catalog *extensions.Catalog, instanceManager instances.Manager) *Orchestrator {
	return &Orchestrator{
		catalog:   catalog,
		instances: instanceManager,
	}
}

// CheckRecipeFile rejects recipes whose extension is not supported. It does
// not touch the file.
func CheckRecipeFile(scriptPath string) error {
	ext := strings.ToLower(filepath.Ext(scriptPath))
	if !slices.Contains(SupportedExtensions, ext) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFile, scriptPath)
	}
	return nil
}

// Resolve reads the recipe at scriptPath and picks the enabled extension and
// image that run its algorithm. It performs no runtime calls.
func (o *Orchestrator) Resolve(scriptPath string, spec *workspace.Spec) (*Resolution, error) {
	if err := CheckRecipeFile(scriptPath); err != nil {
		return nil, err
	}

	algorithm, err := readAlgorithm(scriptPath)
	if err != nil {
		return nil, err
	}

	kind, err := o.catalog.OwnerOf(algorithm, spec.Extensions)
	if err != nil {
		return nil, err
	}

	image, err := o.catalog.ImageFor(kind, &algorithm)
	if err != nil {
		return nil, err
	}

	return &Resolution{Algorithm: algorithm, Kind: kind, Image: image}, nil
}

// Run resolves the recipe and launches its container.
func (o *Orchestrator) Run(ctx context.Context, scriptPath string, spec *workspace.Spec) (*instances.Handle, error) {
	res, err := o.Resolve(scriptPath, spec)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("resolve recipe path: %w", err)
	}

	logger.FromContext(ctx).Info("resolved recipe",
		"recipe", abs,
		"algorithm", res.Algorithm,
		"extension", res.Kind,
		"image", res.Image.String(),
	)

	return o.instances.Run(ctx, instances.RunRequest{
		ScriptPath: abs,
		Spec:       spec,
		Kind:       res.Kind,
		Image:      res.Image,
	})
}

func readAlgorithm(scriptPath string) (extensions.Algorithm, error) {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", fmt.Errorf("read recipe: %w", err)
	}

	var r recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRecipe, scriptPath, err)
	}
	if strings.TrimSpace(r.Algorithm) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingAlgorithm, scriptPath)
	}
	return extensions.ParseAlgorithm(r.Algorithm)
}
