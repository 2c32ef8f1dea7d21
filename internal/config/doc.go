// Package config loads tower's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tower/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// The TOWER_PASSWORD environment variable, when set, replaces the password
// from the file so credentials can stay out of it.
//
// # TOML Format
//
//	base_url = "http://localhost:8010"
//	username = "alice"
//	password = "secret"
//	max_attempts = 2
//	retry_delay = "1s"
//	timeout = "30s"
//	poll_interval = "5s"
//	builders = ["runtests", "docs"]
//	log_dir = "~/.local/share/tower"
//
// Every field is optional. Durations use time.ParseDuration syntax. An empty
// builders list means every builder the master reports. Tilde expansion is
// applied to log_dir.
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files, TOML
// syntax errors and invalid durations. A missing file is not an error.
package config
