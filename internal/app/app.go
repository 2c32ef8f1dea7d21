package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/tower/internal/buildbot"
	"github.com/five82/tower/internal/config"
	"github.com/five82/tower/internal/prefs"
	"github.com/five82/tower/internal/state"
	"github.com/five82/tower/internal/ui"
)

// Options configure the tower dashboard.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses default ~/.config/tower/prefs.toml
	BaseURL     string // overrides base_url from the config file
	MaxAttempts int    // overrides max_attempts; zero keeps the config value
	PollEvery   int    // seconds; zero uses the config value
}

// LoadConfig reads the config file and applies command-line overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.MaxAttempts > 0 {
		cfg.MaxAttempts = opts.MaxAttempts
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	return cfg, nil
}

// NewClient builds a Buildbot client from configuration.
func NewClient(cfg config.Config, logger *slog.Logger) (*buildbot.Client, error) {
	client, err := buildbot.NewClient(cfg.BaseURL,
		buildbot.WithMaxAttempts(cfg.MaxAttempts),
		buildbot.WithRetryDelay(cfg.RetryDelay),
		buildbot.WithTimeout(cfg.Timeout),
		buildbot.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init buildbot client: %w", err)
	}
	return client, nil
}

// Authenticate logs in when credentials are configured. A refused login is
// reported as an error since the caller asked for it explicitly.
func Authenticate(ctx context.Context, s *Session, cfg config.Config, logger *slog.Logger) error {
	if !cfg.HasCredentials() {
		return nil
	}
	ok, err := s.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !ok {
		return fmt.Errorf("login: credentials for %q were refused", cfg.Username)
	}
	logger.Info("logged in", "user", cfg.Username)
	return nil
}

// OpenLog returns a logger writing slog text lines to the config's log file.
func OpenLog(cfg config.Config) (*slog.Logger, io.Closer, error) {
	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, file, nil
}

// Run boots the dashboard until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return fmt.Errorf("load tower config: %w", err)
	}

	logger, closer, err := OpenLog(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	userPrefs := prefs.Load(opts.PrefsPath)

	client, err := NewClient(cfg, logger)
	if err != nil {
		return err
	}
	session := NewSession(client)

	// A refused login still leaves the read-only dashboard usable.
	if err := Authenticate(ctx, session, cfg, logger); err != nil {
		logger.Warn("continuing without session", "error", err)
	}

	store := &state.Store{}
	poller := &Poller{
		Source:  session,
		Store:   store,
		Watches: cfg.Watches,
		Logger:  logger,
	}

	logger.Info("watching buildbot", "url", cfg.BaseURL, "interval", cfg.PollInterval)

	// Do initial refresh to populate store before UI starts
	_ = poller.Refresh(ctx)

	// Start background poller
	StartPoller(ctx, poller, cfg.PollInterval)

	uiOpts := ui.Options{
		Context:   ctx,
		Source:    session,
		Store:     store,
		Refresh:   poller.Refresh,
		Config:    cfg,
		PollTick:  time.Second,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Logger:    logger,
	}
	return ui.Run(uiOpts)
}
