package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/images"
	"github.com/nyunai/nyun/lib/paths"
	"github.com/nyunai/nyun/lib/workspace"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (c *cli) initCommand() *cobra.Command {
	var (
		overwrite bool
		kinds     []string
	)
	cmd := &cobra.Command{
		Use:   "init [workspace] [custom_data]",
		Short: "Initialize a workspace and pull the images of its extensions",
		Long: `Initialize a workspace and pull the images of its extensions.

The workspace defaults to the current directory and custom data to
<workspace>/custom_data. Re-running init with different values fails unless
--overwrite is given.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested, err := extensions.ParseKinds(kinds...)
			if err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			var wsArg, cdArg string
			if len(args) > 0 {
				wsArg = args[0]
			}
			if len(args) > 1 {
				cdArg = args[1]
			}
			p, err := workspace.ResolvePaths(cwd, wsArg, cdArg)
			if err != nil {
				return err
			}

			ctx, app, cleanup, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := c.sink.Open(paths.New(p.Workspace).LogFile()); err != nil {
				return err
			}

			spec, changes, err := app.Store.LoadOrInit(ctx, p.Workspace, p.CustomData, requested, overwrite)
			if errors.Is(err, workspace.ErrConflict) {
				return fmt.Errorf("%w\nrerun with --overwrite to replace the existing values", err)
			}
			if err != nil {
				return err
			}
			for _, change := range changes {
				fmt.Fprintln(c.out, noteStyle.Render("updated "+change.String()))
			}
			fmt.Fprintf(c.out, "workspace %s (extensions: %s)\n", spec.WorkspacePath, kindList(spec.EnabledKinds()))

			results := pullImages(ctx, c.out, c.bars, app.ImageManager, app.Catalog.ImagesFor(spec.Extensions))
			if failed := images.Failed(results); len(failed) > 0 {
				fmt.Fprintln(c.errOut, failStyle.Render(fmt.Sprintf("%d of %d images could not be pulled", len(failed), len(results))))
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "o", false, "replace differing values in an existing workspace")
	cmd.Flags().StringSliceVarP(&kinds, "extensions", "e", []string{string(extensions.All)}, "extension kinds to enable (vision, text-generation, adapt, all, none)")
	return cmd
}

func kindList(kinds []extensions.Kind) string {
	if len(kinds) == 0 {
		return string(extensions.None)
	}
	return strings.Join(lo.Map(kinds, func(k extensions.Kind, _ int) string { return string(k) }), ", ")
}
