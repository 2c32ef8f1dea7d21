package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(passwordEnv, "")

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.MaxAttempts != defaultMaxAttempts || cfg.RetryDelay != defaultRetryDelay {
		t.Fatalf("retry = %d/%v, want %d/%v", cfg.MaxAttempts, cfg.RetryDelay, defaultMaxAttempts, defaultRetryDelay)
	}
	if cfg.PollInterval != defaultPollInterval {
		t.Fatalf("PollInterval = %v, want %v", cfg.PollInterval, defaultPollInterval)
	}

	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
	if cfg.LogPath() != filepath.Join(wantLogDir, "tower.log") {
		t.Fatalf("LogPath = %q, want %q", cfg.LogPath(), filepath.Join(wantLogDir, "tower.log"))
	}
	if cfg.HasCredentials() {
		t.Fatalf("HasCredentials = true, want false")
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(passwordEnv, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
base_url = "  https://ci.example.com:8443  "
username = " alice "
password = "s3cret"
max_attempts = 4
retry_delay = "250ms"
timeout = "30s"
poll_interval = "10s"
builders = ["runtests", "  ", " docs "]
log_dir = "  ~/.tower/logs  "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != "https://ci.example.com:8443" {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, "https://ci.example.com:8443")
	}
	if cfg.Username != "alice" || cfg.Password != "s3cret" || !cfg.HasCredentials() {
		t.Fatalf("credentials = %q/%q, want alice/s3cret", cfg.Username, cfg.Password)
	}
	if cfg.MaxAttempts != 4 || cfg.RetryDelay != 250*time.Millisecond || cfg.Timeout != 30*time.Second {
		t.Fatalf("retry = %d/%v/%v, want 4/250ms/30s", cfg.MaxAttempts, cfg.RetryDelay, cfg.Timeout)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("PollInterval = %v, want 10s", cfg.PollInterval)
	}
	if want := []string{"runtests", "docs"}; !reflect.DeepEqual(cfg.Builders, want) {
		t.Fatalf("Builders = %v, want %v", cfg.Builders, want)
	}
	if !strings.HasPrefix(cfg.LogDir, home) {
		t.Fatalf("LogDir = %q, want it under HOME %q", cfg.LogDir, home)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
base_url = "   "
max_attempts = 0
retry_delay = ""
log_dir = ""
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.MaxAttempts != defaultMaxAttempts || cfg.RetryDelay != defaultRetryDelay {
		t.Fatalf("retry = %d/%v, want defaults", cfg.MaxAttempts, cfg.RetryDelay)
	}
	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
}

func TestLoad_PasswordFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(passwordEnv, "from-env")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("username = \"bob\"\npassword = \"from-file\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Password != "from-env" {
		t.Fatalf("Password = %q, want from-env", cfg.Password)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`base_url = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	for _, body := range []string{`retry_delay = "soon"`, `poll_interval = "-1s"`} {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
			t.Fatalf("Load(%s) error = %v, want parse config error", body, err)
		}
	}
}

func TestWatches(t *testing.T) {
	var all Config
	if !all.Watches("anything") {
		t.Fatalf("empty watch list should show every builder")
	}
	some := Config{Builders: []string{"runtests"}}
	if !some.Watches("runtests") || some.Watches("docs") {
		t.Fatalf("Watches mismatch for %v", some.Builders)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogPath_DefaultsWhenLogDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/tower.log")) {
		t.Fatalf("LogPath = %q, want it to end with /tower.log", got)
	}
}
