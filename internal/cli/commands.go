package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/tower/internal/app"
	"github.com/five82/tower/internal/buildbot"
)

func newBuildersCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "builders",
		Short: "List builders known to the master",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			names, err := client.ListBuilders(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

func newBuildCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "build NAME [NUMBER]",
		Short: "Show one build of a builder (default: the latest)",
		Long: `Show one build of a builder. NUMBER defaults to the latest build;
negative numbers count back from it (-2 is the build before the latest)
and must follow "--", as in: tower build runtests -- -2`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := -1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid build number %q", args[1])
				}
				number = n
			}

			client, _, _, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			build, err := client.GetBuild(cmd.Context(), args[0], number)
			if err != nil {
				return err
			}
			if asJSON {
				return writeBuildJSON(cmd.OutOrStdout(), build)
			}
			writeBuild(cmd.OutOrStdout(), build, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the build as JSON")
	return cmd
}

func newTriggerCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger NAME",
		Short: "Force a build of a builder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, logger, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			session := app.NewSession(client)
			if err := app.Authenticate(cmd.Context(), session, cfg, logger); err != nil {
				return err
			}
			if err := session.TriggerBuild(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("force %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "build queued for %s\n", args[0])
			return nil
		},
	}
}

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check Buildbot credentials",
		Long: `Log in to the master with the configured credentials and report the
result. When no password is configured and stdin is a terminal, tower
prompts for one. Set TOWER_PASSWORD to avoid storing it in the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, logger, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			if user != "" {
				cfg.Username = user
			}
			if cfg.Username == "" {
				return errors.New("no username: set username in the config or pass --user")
			}
			if cfg.Password == "" {
				pw, err := promptPassword(cmd.ErrOrStderr(), cfg.Username)
				if err != nil {
					return err
				}
				cfg.Password = pw
			}

			if err := app.Authenticate(cmd.Context(), app.NewSession(client), cfg, logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", client.User())
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "username, overrides the config")
	return cmd
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var poll int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the live builder dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, poll)
		},
	}
	cmd.Flags().IntVar(&poll, "poll", 0, "refresh interval in seconds (default from poll_interval)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *rootOptions, poll int) error {
	appOpts := opts.appOptions()
	appOpts.PollEvery = poll
	return app.Run(cmd.Context(), appOpts)
}

func promptPassword(w io.Writer, user string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password configured and stdin is not a terminal; set TOWER_PASSWORD")
	}
	fmt.Fprintf(w, "Password for %s: ", user)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(string(pw), "\r\n"), nil
}

func writeBuild(w io.Writer, b buildbot.BuildRecord, now time.Time) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%-9s %s\n", label, value)
	}
	row("builder", b.Builder)
	row("build", "#"+strconv.Itoa(b.Number))
	row("status", string(b.Status))
	row("started", formatTime(b.Start))
	row("finished", formatTime(b.Finish))
	row("duration", b.Duration(now).Round(time.Second).String())
	if b.Revision != "" {
		row("revision", b.Revision)
	}
	if b.Error != "" {
		row("error", b.Error)
	}
	if b.ErrorLog != "" {
		row("log", b.ErrorLog)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}

type buildJSON struct {
	Builder  string     `json:"builder"`
	Number   int        `json:"number"`
	Status   string     `json:"status"`
	Start    time.Time  `json:"start"`
	Finish   *time.Time `json:"finish,omitempty"`
	Revision string     `json:"revision,omitempty"`
	Error    string     `json:"error,omitempty"`
	ErrorLog string     `json:"error_log,omitempty"`
}

func writeBuildJSON(w io.Writer, b buildbot.BuildRecord) error {
	out := buildJSON{
		Builder:  b.Builder,
		Number:   b.Number,
		Status:   string(b.Status),
		Start:    b.Start,
		Revision: b.Revision,
		Error:    b.Error,
		ErrorLog: b.ErrorLog,
	}
	if b.Finished() {
		finish := b.Finish
		out.Finish = &finish
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
