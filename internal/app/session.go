package app

import (
	"context"
	"sync"

	"github.com/five82/tower/internal/buildbot"
)

// Buildbot is the part of the client the dashboard needs.
type Buildbot interface {
	ListBuilders(ctx context.Context) ([]string, error)
	LastBuild(ctx context.Context, builder string) (buildbot.BuildRecord, error)
	TriggerBuild(ctx context.Context, builder string) error
}

// Ensure the client and Session implement Buildbot at compile time.
var (
	_ Buildbot = (*buildbot.Client)(nil)
	_ Buildbot = (*Session)(nil)
)

// Session serializes every call into one client. The poller and the UI both
// issue requests, and a buildbot.Client must only be used by one caller at a
// time.
type Session struct {
	mu     sync.Mutex
	client *buildbot.Client
}

// NewSession wraps client.
func NewSession(client *buildbot.Client) *Session {
	return &Session{client: client}
}

// ListBuilders returns the builder names known to the master.
func (s *Session) ListBuilders(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.ListBuilders(ctx)
}

// LastBuild fetches the newest build of builder.
func (s *Session) LastBuild(ctx context.Context, builder string) (buildbot.BuildRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.LastBuild(ctx, builder)
}

// TriggerBuild forces a build of builder.
func (s *Session) TriggerBuild(ctx context.Context, builder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.TriggerBuild(ctx, builder)
}

// Login authenticates the underlying client.
func (s *Session) Login(ctx context.Context, user, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Login(ctx, user, password)
}
