// Package cli defines the cobra command tree for the tower binary.
// This file contains the root command and the shared connection setup.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/tower/internal/app"
	"github.com/five82/tower/internal/buildbot"
	"github.com/five82/tower/internal/config"
)

var version = "dev" // set via ldflags at build time

type rootOptions struct {
	configPath string
	baseURL    string
	attempts   int
	verbose    bool

	// isTTY reports whether the process is attached to a terminal.
	isTTY func() bool
}

// NewRootCommand builds the tower command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{isTTY: stdoutIsTerminal})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tower",
		Short: "Watch and drive a Buildbot master from the terminal",
		Long: `tower talks to a Buildbot master through its JSON status API.
It lists builders, shows build results, forces builds, and runs a
live dashboard of the latest build of every watched builder.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Without a subcommand, launch the dashboard on a TTY and show help otherwise.
			if !opts.isTTY() {
				return cmd.Help()
			}
			return runWatch(cmd, opts, 0)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/tower/config.toml)")
	flags.StringVar(&opts.baseURL, "url", "", "Buildbot master URL, overrides base_url")
	flags.IntVar(&opts.attempts, "attempts", 0, "request attempts before giving up, overrides max_attempts")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests and retries to stderr")

	cmd.AddCommand(
		newBuildersCommand(opts),
		newBuildCommand(opts),
		newTriggerCommand(opts),
		newLoginCommand(opts),
		newWatchCommand(opts),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tower: %v\n", err)
		return 1
	}
	return 0
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func (o *rootOptions) appOptions() app.Options {
	return app.Options{
		ConfigPath:  o.configPath,
		BaseURL:     o.baseURL,
		MaxAttempts: o.attempts,
	}
}

// logger returns a stderr logger; client retries only show with --verbose.
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// connect loads configuration and returns a client for one-shot commands.
func (o *rootOptions) connect(cmd *cobra.Command) (*buildbot.Client, config.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig(o.appOptions())
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("load tower config: %w", err)
	}
	logger := o.logger(cmd.ErrOrStderr())
	client, err := app.NewClient(cfg, logger)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	return client, cfg, logger, nil
}
