package main

import (
	"fmt"
	"path/filepath"

	"github.com/nyunai/nyun/lib/images"
	"github.com/nyunai/nyun/lib/orchestrator"
	"github.com/nyunai/nyun/lib/workspace"
	"github.com/spf13/cobra"
)

func (c *cli) runCommand() *cobra.Command {
	var (
		workspacePath string
		detach        bool
	)
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a recipe in the extension container that owns its algorithm",
		Long: `Run a recipe in the extension container that owns its algorithm.

The recipe is a YAML or JSON file naming an algorithm. The workspace is found
by walking up from the recipe unless --workspace is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve script path: %w", err)
			}
			if err := orchestrator.CheckRecipeFile(script); err != nil {
				return err
			}

			ws := workspacePath
			if ws == "" {
				if ws, err = workspace.Discover(filepath.Dir(script)); err != nil {
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

			resolution, err := app.Orchestrator.Resolve(script, spec)
			if err != nil {
				return err
			}
			results := pullImages(ctx, c.out, c.bars, app.ImageManager, []*images.Ref{resolution.Image})
			if len(images.Failed(results)) > 0 {
				return &ExitError{Code: 1}
			}

			handle, err := app.Orchestrator.Run(ctx, script, spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "started %s (%s) for %s on %s\n", handle.Name, handle.ID(), resolution.Algorithm, handle.Image)
			if detach {
				return nil
			}

			code, err := handle.Wait(ctx)
			if err != nil {
				return err
			}
			if code != 0 {
				return fmt.Errorf("%s exited with code %d", handle.Name, code)
			}
			fmt.Fprintln(c.out, okStyle.Render(fmt.Sprintf("✓ %s completed", handle.Name)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&workspacePath, "workspace", "w", "", "workspace directory (default: discovered from the script)")
	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "return once the container has started")
	return cmd
}
