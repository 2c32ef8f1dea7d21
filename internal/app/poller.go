package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/tower/internal/buildbot"
	"github.com/five82/tower/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that refreshes the store at a
// fixed cadence, slowing down while the master keeps failing. The first poll
// happens after one interval. It returns immediately.
func StartPoller(ctx context.Context, p *Poller, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		failures := 0
		for {
			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if err := p.Refresh(ctx); err != nil {
				failures++
			} else {
				failures = 0
			}
		}
	}()
}

// calculateBackoff doubles the base interval per consecutive failure, capped
// at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

// Poller fetches the watched builders and their latest builds into a store.
type Poller struct {
	Source  Buildbot
	Store   *state.Store
	Watches func(builder string) bool // nil watches every builder
	Logger  *slog.Logger
}

// Refresh runs one poll. Only a failed builder listing counts as a failed
// poll; a builder whose build cannot be fetched keeps its error in the
// snapshot.
func (p *Poller) Refresh(ctx context.Context) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	names, err := p.Source.ListBuilders(ctx)
	if err != nil {
		p.Store.Update(nil, err)
		lvl := slog.LevelError
		if buildbot.IsTransient(err) {
			lvl = slog.LevelWarn
		}
		logger.Log(ctx, lvl, "builder poll failed", "error", err)
		return err
	}

	builders := make([]state.BuilderState, 0, len(names))
	for _, name := range names {
		if p.Watches != nil && !p.Watches(name) {
			continue
		}
		entry := state.BuilderState{Name: name}
		build, err := p.Source.LastBuild(ctx, name)
		if err != nil {
			entry.Err = err
			logger.Debug("last build unavailable", "builder", name, "error", err)
		} else {
			entry.Build = build
			entry.HasBuild = true
		}
		builders = append(builders, entry)
	}
	p.Store.Update(builders, nil)
	return nil
}
