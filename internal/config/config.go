package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings tower needs to reach a Buildbot master.
type Config struct {
	BaseURL      string
	Username     string
	Password     string
	MaxAttempts  int
	RetryDelay   time.Duration
	Timeout      time.Duration
	PollInterval time.Duration
	Builders     []string
	LogDir       string
}

const (
	defaultConfigPath   = "~/.config/tower/config.toml"
	defaultLogDir       = "~/.local/share/tower"
	defaultBaseURL      = "http://localhost:8010"
	defaultMaxAttempts  = 2
	defaultRetryDelay   = time.Second
	defaultPollInterval = 5 * time.Second

	passwordEnv = "TOWER_PASSWORD"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		MaxAttempts:  defaultMaxAttempts,
		RetryDelay:   defaultRetryDelay,
		PollInterval: defaultPollInterval,
		LogDir:       mustExpand(defaultLogDir),
	}
}

// Load locates and parses the tower config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL      string   `toml:"base_url"`
		Username     string   `toml:"username"`
		Password     string   `toml:"password"`
		MaxAttempts  int      `toml:"max_attempts"`
		RetryDelay   string   `toml:"retry_delay"`
		Timeout      string   `toml:"timeout"`
		PollInterval string   `toml:"poll_interval"`
		Builders     []string `toml:"builders"`
		LogDir       string   `toml:"log_dir"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	cfg.Username = strings.TrimSpace(raw.Username)
	cfg.Password = raw.Password
	if raw.MaxAttempts > 0 {
		cfg.MaxAttempts = raw.MaxAttempts
	}
	if cfg.RetryDelay, err = parseDuration("retry_delay", raw.RetryDelay, cfg.RetryDelay); err != nil {
		return Config{}, err
	}
	if cfg.Timeout, err = parseDuration("timeout", raw.Timeout, cfg.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, cfg.PollInterval); err != nil {
		return Config{}, err
	}
	for _, name := range raw.Builders {
		if name = strings.TrimSpace(name); name != "" {
			cfg.Builders = append(cfg.Builders, name)
		}
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// HasCredentials reports whether a login should be attempted.
func (c Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// LogPath returns the path to tower's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/tower.log")
	}
	return filepath.Join(c.LogDir, "tower.log")
}

// Watches reports whether builder is shown by the dashboard. An empty watch
// list shows every builder.
func (c Config) Watches(builder string) bool {
	if len(c.Builders) == 0 {
		return true
	}
	for _, name := range c.Builders {
		if name == builder {
			return true
		}
	}
	return false
}

func applyEnv(cfg *Config) {
	if pw, ok := os.LookupEnv(passwordEnv); ok && pw != "" {
		cfg.Password = pw
	}
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse config: %s must not be negative", key)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
