package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/tower/internal/buildbot"
)

// BuilderState is the latest known build of one builder.
type BuilderState struct {
	Name     string
	Build    buildbot.BuildRecord
	HasBuild bool
	Err      error // set when the builder's last build could not be fetched
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Builders            []BuilderState
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the master has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Counts tallies builders by build status. Builders without a build are not counted.
func (s Snapshot) Counts() map[buildbot.Status]int {
	counts := make(map[buildbot.Status]int, 3)
	for _, b := range s.Builders {
		if b.HasBuild {
			counts[b.Build.Status]++
		}
	}
	return counts
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(builders []BuilderState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Builders = cloneBuilders(builders)
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Builders = cloneBuilders(s.snapshot.Builders)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneBuilders(items []BuilderState) []BuilderState {
	if len(items) == 0 {
		return nil
	}
	dup := make([]BuilderState, len(items))
	copy(dup, items)
	return dup
}
