package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/nyunai/nyun/cmd/nyun/config"
	"github.com/nyunai/nyun/lib/logger"
	"github.com/nyunai/nyun/lib/providers"
	"github.com/nyunai/nyun/lib/runtime"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	sink := logger.NewSink(stderr)
	defer sink.Close()

	cfg := providers.ProvideConfig()
	cfg.Version = version

	c := &cli{
		out:    stdout,
		errOut: stderr,
		cfg:    cfg,
		sink:   sink,
		bars:   isTerminal(stdout),
		newApp: initializeApp,
	}
	return c.execute(ctx, args)
}

// appFactory builds the application for a command.
type appFactory func(ctx context.Context, cfg *config.Config, sink *logger.Sink) (*application, func(), error)

// withRuntime returns an appFactory that reuses rt instead of dialing Docker.
func withRuntime(rt runtime.Runtime) appFactory {
	return func(ctx context.Context, cfg *config.Config, sink *logger.Sink) (*application, func(), error) {
		return initializeAppWithRuntime(ctx, cfg, sink, rt)
	}
}

type cli struct {
	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
	sink   *logger.Sink
	bars   bool
	newApp appFactory
}

func (c *cli) execute(ctx context.Context, args []string) int {
	root := c.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	fmt.Fprintln(c.errOut, errorStyle.Render("Error: "+err.Error()))
	if path := c.sink.Path(); path != "" {
		fmt.Fprintln(c.errOut, noteStyle.Render("see "+path+" for details"))
	}
	return 1
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
