// Package repository keeps recipe sessions, each owning its own distribution engine.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/caloric/internal/domain/dedupe"
	"github.com/okian/caloric/internal/domain/distribution"
	"github.com/okian/caloric/internal/domain/types"
)

// Store provides access to live sessions.
type Store interface {
	// Create registers a new uninitialized session.
	// Returns ErrCapacity when the store is full.
	Create(ctx context.Context) (*Session, error)

	// Get returns the session with id or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes the session with id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// Close stops background work.
	Close() error
}

// State is the mutable part of a session, only reachable through Session.Use.
type State struct {
	Engine   *distribution.Engine
	Messages *MessageLog
	Replays  *dedupe.Cache[types.Transition]
}

// Session is one recipe being built. Access to its state is serialized.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    State
	lastSeen time.Time
	now      func() time.Time
}

func newSession(id string, now func() time.Time, messageLogSize, dedupeSize int) *Session {
	t := now()
	return &Session{
		ID:        id,
		CreatedAt: t,
		lastSeen:  t,
		now:       now,
		state: State{
			Engine:   distribution.NewEngine(),
			Messages: NewMessageLog(messageLogSize),
			Replays:  dedupe.New[types.Transition](dedupe.WithMaxSize(dedupeSize)),
		},
	}
}

// Use runs fn with exclusive access to the session state and marks the
// session as recently used.
func (s *Session) Use(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	return fn(&s.state)
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
