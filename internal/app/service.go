// Package service provides the recipe session service behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/caloric/internal/adapters/repository"
	"github.com/okian/caloric/internal/domain/dedupe"
	"github.com/okian/caloric/internal/domain/distribution"
	"github.com/okian/caloric/internal/domain/types"
	"github.com/okian/caloric/pkg/logger"
	"github.com/okian/caloric/pkg/metrics"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service manages recipe sessions. Each session owns one distribution engine
// and every call holds exactly that session's lock.
type Service struct {
	mu sync.RWMutex

	store repository.Store
	// ownsStore is set when Start built the store; Stop then drops it so a
	// later Start builds a fresh one.
	ownsStore bool

	// Configuration
	shardCount      int
	maxSessions     int
	sessionTTL      time.Duration
	janitorInterval time.Duration
	messageLogSize  int
	dedupeSize      int
	defaultCount    int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a session store instead of building one on Start.
// The caller owns the store and closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithShardCount sets the number of session store shards.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionTTL sets how long an idle session survives and how often idle
// sessions are swept.
func WithSessionTTL(ttl, janitorInterval time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
		if janitorInterval > 0 {
			s.janitorInterval = janitorInterval
		}
	}
}

// WithMessageLogSize sets how many status messages a session keeps.
func WithMessageLogSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.messageLogSize = n
		}
	}
}

// WithDedupeSize bounds each session's idempotency cache.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithDefaultIngredientCount is used by CreateSession when count is 0.
func WithDefaultIngredientCount(n int) Option {
	return func(s *Service) {
		if n >= distribution.MinIngredients && n <= distribution.MaxIngredients {
			s.defaultCount = n
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		shardCount:      8,
		maxSessions:     10_000,
		sessionTTL:      30 * time.Minute,
		janitorInterval: time.Minute,
		messageLogSize:  3,
		dedupeSize:      64,
		defaultCount:    5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the session store unless one was injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.store == nil {
		s.ownsStore = true
		s.store = repository.NewMemoryStore(ctx,
			repository.WithShardCount(s.shardCount),
			repository.WithMaxSessions(s.maxSessions),
			repository.WithSessionTTL(s.sessionTTL),
			repository.WithJanitorInterval(s.janitorInterval),
			repository.WithMessageLogSize(s.messageLogSize),
			repository.WithDedupeSize(s.dedupeSize),
			repository.WithExpireHook(func(id string) {
				metrics.RecordSessionExpired()
				s.logger.Debug(context.Background(), "session expired", logger.String("session", id))
			}),
		)
	}

	s.started = true
	s.logger.Info(ctx, "recipe service started",
		logger.Int("maxSessions", s.maxSessions),
		logger.Int("shards", s.shardCount),
		logger.Any("sessionTTL", s.sessionTTL),
	)
	return nil
}

// Stop closes the session store built by Start. An injected store is left
// open for its owner to close.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing session store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}
	s.started = false
	s.logger.Info(context.Background(), "recipe service stopped")
}

func (s *Service) sessionStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) session(ctx context.Context, id string) (*repository.Session, error) {
	store, err := s.sessionStore()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// CreateSession creates a session and initializes it with count ingredients.
// A count of 0 selects the configured default.
func (s *Service) CreateSession(ctx context.Context, count int) (types.Session, error) {
	store, err := s.sessionStore()
	if err != nil {
		return types.Session{}, err
	}
	if count == 0 {
		count = s.defaultCount
	}
	// Validate before creating so a bad count never occupies a slot.
	if count < distribution.MinIngredients || count > distribution.MaxIngredients {
		err := fmt.Errorf("%w: %d", distribution.ErrInvalidConfiguration, count)
		s.recordError(ctx, "create", err)
		return types.Session{}, err
	}
	sess, err := store.Create(ctx)
	if err != nil {
		return types.Session{}, fmt.Errorf("create session: %w", err)
	}
	metrics.RecordSessionCreated()
	metrics.UpdateSessionsActive(store.Count(ctx))

	var view types.Session
	err = sess.Use(func(st *repository.State) error {
		if _, err := st.Engine.Initialize(count); err != nil {
			return err
		}
		st.Messages.Add(msgInitialized)
		view = sessionView(sess, st)
		return nil
	})
	if err != nil {
		_ = store.Delete(ctx, sess.ID)
		return types.Session{}, err
	}

	metrics.RecordInitialization()
	s.logger.Info(ctx, "session created", logger.String("session", sess.ID), logger.Int("count", count))
	return view, nil
}

// Initialize re-initializes a session with count ingredients, clearing its history.
func (s *Service) Initialize(ctx context.Context, id string, count int) (types.Session, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.Session{}, err
	}

	var view types.Session
	err = sess.Use(func(st *repository.State) error {
		if _, err := st.Engine.Initialize(count); err != nil {
			return err
		}
		st.Replays.Clear()
		st.Messages.Add(msgInitialized)
		view = sessionView(sess, st)
		return nil
	})
	if err != nil {
		s.recordError(ctx, "initialize", err)
		return types.Session{}, err
	}

	metrics.RecordInitialization()
	s.logger.Info(ctx, "session initialized", logger.String("session", id), logger.Int("count", count))
	return view, nil
}

// AddIngredient adds one ingredient to the session's recipe. A non-empty
// requestID makes the call idempotent: a repeated id returns the recorded
// transition with Replayed set and changes nothing. Reusing an id for a
// different ingredient fails with dedupe.ErrConflict.
func (s *Service) AddIngredient(ctx context.Context, id string, ingredient int, requestID string) (types.Transition, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.Transition{}, err
	}

	var (
		view     types.Transition
		replayed bool
		weight   float64
	)
	err = sess.Use(func(st *repository.State) error {
		if requestID != "" {
			if prior, ok := st.Replays.Lookup(ctx, requestID); ok {
				if prior.Selected != ingredient {
					return fmt.Errorf("%w: request %q added ingredient %d, not %d",
						dedupe.ErrConflict, requestID, prior.Selected, ingredient)
				}
				view = prior
				view.Replayed = true
				replayed = true
				return nil
			}
		}

		tr, err := st.Engine.AddIngredient(distribution.Ingredient(ingredient))
		if err != nil {
			return err
		}
		weight = tr.Weight
		msg := narrate(tr.Outcome, tr.Selected)
		st.Messages.Add(msg)

		view = types.Transition{
			SessionID: id,
			Step:      st.Engine.Steps(),
			Selected:  int(tr.Selected),
			Outcome:   tr.Outcome,
			Reset:     tr.Reset,
			Message:   msg,
			Previous:  types.Weights(tr.Previous),
			Current:   types.Weights(tr.Current),
		}
		if requestID != "" {
			st.Replays.Record(ctx, requestID, view)
		}
		return nil
	})
	if err != nil {
		s.recordError(ctx, "add", err)
		return types.Transition{}, err
	}

	if replayed {
		metrics.RecordReplay()
		s.logger.Debug(ctx, "replayed addition", logger.String("session", id), logger.String("request", requestID))
		return view, nil
	}

	if err := metrics.RecordAddition(view.Outcome.String(), weight); err != nil {
		s.logger.Warn(ctx, "recording addition", logger.Error(err))
	}
	s.logger.Debug(ctx, "ingredient added",
		logger.String("session", id),
		logger.Int("ingredient", ingredient),
		logger.Float64("weight", weight),
		logger.String("outcome", view.Outcome.String()),
		logger.Bool("reset", view.Reset),
	)
	return view, nil
}

// Reset returns the session to the uninitialized state.
func (s *Service) Reset(ctx context.Context, id string) (types.Session, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.Session{}, err
	}

	var view types.Session
	_ = sess.Use(func(st *repository.State) error {
		st.Engine.Reset()
		st.Messages.Clear()
		st.Replays.Clear()
		view = sessionView(sess, st)
		return nil
	})

	metrics.RecordEngineReset()
	s.logger.Info(ctx, "session reset", logger.String("session", id))
	return view, nil
}

// Snapshot returns the current view of a session.
func (s *Service) Snapshot(ctx context.Context, id string) (types.Session, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.Session{}, err
	}
	var view types.Session
	_ = sess.Use(func(st *repository.State) error {
		view = sessionView(sess, st)
		return nil
	})
	return view, nil
}

// History returns every recorded distribution of a session, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]types.HistoryStep, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	var steps []types.HistoryStep
	_ = sess.Use(func(st *repository.State) error {
		steps = types.History(st.Engine.History())
		return nil
	})
	return steps, nil
}

// DeleteSession removes a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	store, err := s.sessionStore()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.RecordSessionDeleted()
	metrics.UpdateSessionsActive(store.Count(ctx))
	s.logger.Info(ctx, "session deleted", logger.String("session", id))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":                s.started,
		"maxSessions":            s.maxSessions,
		"sessionTTLSeconds":      int(s.sessionTTL.Seconds()),
		"defaultIngredientCount": s.defaultCount,
	}
	if s.started {
		n := s.store.Count(context.Background())
		stats["activeSessions"] = n
		metrics.UpdateSessionsActive(n)
	}
	return stats
}

func (s *Service) recordError(ctx context.Context, op string, err error) {
	kind := "other"
	switch {
	case errors.Is(err, distribution.ErrInvalidConfiguration):
		kind = "invalid_configuration"
	case errors.Is(err, distribution.ErrNotInitialized):
		kind = "not_initialized"
	case errors.Is(err, distribution.ErrUnknownIngredient):
		kind = "unknown_ingredient"
	case errors.Is(err, dedupe.ErrConflict):
		kind = "request_conflict"
	}
	metrics.RecordEngineError(kind)
	s.logger.Debug(ctx, "operation rejected", logger.String("op", op), logger.String("kind", kind), logger.Error(err))
}

// sessionView must be called inside Session.Use.
func sessionView(sess *repository.Session, st *repository.State) types.Session {
	view := types.Session{
		ID:          sess.ID,
		State:       types.StateUninitialized,
		Ingredients: []types.IngredientWeight{},
		Messages:    st.Messages.List(),
		CreatedAt:   sess.CreatedAt,
	}
	cur, err := st.Engine.Current()
	if err != nil {
		return view
	}
	view.State = types.StateActive
	view.Count = st.Engine.Count()
	view.Ingredients = types.Weights(cur)
	view.Sum = cur.Sum()
	view.Steps = st.Engine.Steps()
	return view
}
