// Package app wires configuration, the Buildbot client, polling, state and
// the UI into the tower dashboard.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> LoadConfig()     Read config.toml, apply flag overrides
//	       ├─────> OpenLog()        slog text log under log_dir
//	       ├─────> NewClient()      buildbot.Client with retry settings
//	       ├─────> NewSession()     serialize access to the client
//	       ├─────> Authenticate()   optional login for force builds
//	       ├─────> Poller.Refresh() initial snapshot
//	       ├─────> StartPoller()    background updates
//	       └─────> ui.Run()         dashboard (blocks)
//
// # Polling Behavior
//
// Each poll lists the builders, keeps the watched ones and fetches the newest
// build of each. A failed listing counts as a failed poll: the previous
// snapshot is kept and the next poll is delayed by calculateBackoff (doubling,
// capped at 30s). A builder whose build cannot be fetched (for example one
// that never ran) is shown with its error without failing the poll.
//
// # Serialization
//
// buildbot.Client is not safe for concurrent use. The poller goroutine and the
// UI's force-build action both go through Session, which holds a mutex for
// the duration of every call.
package app
