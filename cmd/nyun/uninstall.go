package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/images"
	"github.com/nyunai/nyun/lib/workspace"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (c *cli) uninstallCommand() *cobra.Command {
	var (
		workspacePath string
		kinds         []string
	)
	cmd := &cobra.Command{
		Use:   "uninstall -e kind ...",
		Short: "Disable extensions and remove images no other extension needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requested, err := extensions.ParseKinds(kinds...)
			if err != nil {
				return err
			}
			disable, err := extensions.Expand(requested...)
			if err != nil {
				return err
			}

			ws := workspacePath
			if ws == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("get working directory: %w", err)
				}
				if ws, err = workspace.Discover(cwd); err != nil {
					return initHint(err)
				}
			} else if ws, err = filepath.Abs(ws); err != nil {
				return fmt.Errorf("resolve workspace path: %w", err)
			}

			ctx, app, cleanup, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			spec, err := app.Store.Read(ws)
			if err != nil {
				return initHint(err)
			}
			if err := c.openLog(spec); err != nil {
				return err
			}

			remaining := lo.Without(spec.EnabledKinds(), disable...)
			if len(remaining) == 0 {
				remaining = []extensions.Kind{extensions.None}
			}
			updated, changes, err := app.Store.LoadOrInit(ctx, ws, spec.CustomDataPath, remaining, true)
			if err != nil {
				return err
			}
			for _, change := range changes {
				fmt.Fprintln(c.out, noteStyle.Render("updated "+change.String()))
			}

			unused, err := unusedImages(app.Catalog, disable, updated.Extensions)
			if err != nil {
				return err
			}
			if err := app.ImageManager.RemoveAll(ctx, unused); err != nil {
				return err
			}
			for _, ref := range unused {
				fmt.Fprintln(c.out, okStyle.Render("✓ removed "+ref.String()))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&workspacePath, "workspace", "w", "", "workspace directory (default: discovered from the working directory)")
	cmd.Flags().StringSliceVarP(&kinds, "extensions", "e", nil, "extension kinds to disable")
	_ = cmd.MarkFlagRequired("extensions")
	return cmd
}

// unusedImages returns the images of disabled kinds that no enabled kind
// still requires.
func unusedImages(catalog *extensions.Catalog, disabled []extensions.Kind, enabled map[extensions.Kind]bool) ([]*images.Ref, error) {
	keep := catalog.ImagesFor(enabled)
	var unused []*images.Ref
	for _, kind := range disabled {
		refs, err := catalog.RequiredImages(kind)
		if err != nil {
			return nil, err
		}
		unused = append(unused, lo.Without(refs, keep...)...)
	}
	return lo.Uniq(unused), nil
}
