// Package state provides thread-safe state management for the tower dashboard.
//
// # Overview
//
// The Store shares the latest builder states between the background poller
// and the UI:
//
//	Producer (Poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ ListBuilders() │            │                 │
//	│ LastBuild()... │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │  render UI      │
//	└────────────────┘            └─────────────────┘
//
// # Update Semantics
//
//	// Success case: replace the builder list
//	store.Update(builders, nil)
//	→ snapshot.Builders = builders (copied)
//	→ snapshot.LastError = nil
//	→ snapshot.ConsecutiveFailures = 0
//
//	// Error case: keep the previous builders
//	store.Update(nil, err)
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
// A per-builder fetch failure is not a poll failure; it is carried on the
// builder's BuilderState.Err and the rest of the list still updates.
//
// Snapshot returns copies, so the UI may keep and mutate what it reads.
// IsOffline reports two or more consecutive failed polls.
package state
