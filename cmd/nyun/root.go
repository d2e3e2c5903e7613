package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nyunai/nyun/lib/logger"
	"github.com/nyunai/nyun/lib/paths"
	"github.com/nyunai/nyun/lib/workspace"
	"github.com/spf13/cobra"
)

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "nyun",
		Short:         "Manage nyun workspaces and run extension jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.AddCommand(
		c.initCommand(),
		c.runCommand(),
		c.uninstallCommand(),
		c.versionCommand(),
	)
	return root
}

// app builds the application and attaches its logger to ctx.
func (c *cli) app(ctx context.Context) (context.Context, *application, func(), error) {
	app, cleanup, err := c.newApp(ctx, c.cfg, c.sink)
	if err != nil {
		return nil, nil, nil, err
	}
	return logger.AddToContext(ctx, app.Logger), app, cleanup, nil
}

// initHint adds the next step to a missing-workspace error.
func initHint(err error) error {
	if errors.Is(err, workspace.ErrNotInitialized) {
		return fmt.Errorf("%w; run 'nyun init' first", err)
	}
	return err
}

// openLog points the logger at the workspace log file.
func (c *cli) openLog(spec *workspace.Spec) error {
	path := spec.LogPath
	if path == "" {
		path = paths.New(spec.WorkspacePath).LogFile()
	}
	return c.sink.Open(path)
}
