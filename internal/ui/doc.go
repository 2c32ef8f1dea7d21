// Package ui provides the terminal dashboard for tower.
//
// The dashboard is a Bubble Tea program. It reads builder snapshots from
// state.Store on a fixed tick while the background poller in package app keeps
// the store current, so the UI never blocks on the network except for the
// explicit force-build and refresh actions, which run as tea.Cmds.
//
// # Layout
//
//   - Header: master URL, success/failure/running counts, and poll health
//   - Builder table: one row per watched builder with its latest build
//   - Detail panel: timestamps, revision, and failure text for the selection
//   - Log panel (optional): tail of tower's own log file, colored by level
//   - Footer: last action result and key help
//
// # Key Bindings
//
//   - ↑/k, ↓/j: Move selection
//   - f: Force a build of the selected builder
//   - r: Refresh now
//   - l: Toggle the log panel (persisted)
//   - pgup/pgdn: Scroll the log panel
//   - t: Cycle theme (persisted)
//   - ?: Toggle full help
//   - q or Ctrl+C: Exit
package ui
