package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// MemoryStore is a sharded in-memory Store with idle eviction.
type MemoryStore struct {
	shards          []*shard
	shardCount      int
	maxSessions     int
	ttl             time.Duration
	janitorInterval time.Duration
	messageLogSize  int
	dedupeSize      int
	now             func() time.Time
	newID           func() string
	onExpire        func(id string)

	count atomic.Int64

	wg       sync.WaitGroup
	stopChan chan struct{}
	closed   atomic.Bool
}

// NewMemoryStore constructs a store and starts its janitor, which stops when
// ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		shardCount:      8,
		maxSessions:     10_000,
		ttl:             30 * time.Minute,
		janitorInterval: time.Minute,
		messageLogSize:  3,
		dedupeSize:      64,
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*Session)}
	}

	s.stopChan = make(chan struct{})
	s.startJanitor(ctx)
	return s
}

func (s *MemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Create registers a new session under a fresh id.
func (s *MemoryStore) Create(_ context.Context) (*Session, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	// Reserve a slot first so concurrent creates cannot exceed the cap.
	if s.count.Add(1) > int64(s.maxSessions) {
		s.count.Add(-1)
		return nil, ErrCapacity
	}

	sess := newSession(s.newID(), s.now, s.messageLogSize, s.dedupeSize)
	sh := s.shardFor(sess.ID)
	sh.mu.Lock()
	sh.sessions[sess.ID] = sess
	sh.mu.Unlock()
	return sess, nil
}

// Get returns the session with id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	sess, ok := sh.sessions[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes the session with id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(sh.sessions, id)
	s.count.Add(-1)
	return nil
}

// Count returns the number of live sessions.
func (s *MemoryStore) Count(_ context.Context) int {
	return int(s.count.Load())
}

// Sweep evicts every session idle since before now-ttl and returns how many
// were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)
	removed := 0
	for _, sh := range s.shards {
		var expired []string
		sh.mu.RLock()
		for id, sess := range sh.sessions {
			if sess.LastSeen().Before(cutoff) {
				expired = append(expired, id)
			}
		}
		sh.mu.RUnlock()

		if len(expired) == 0 {
			continue
		}
		sh.mu.Lock()
		for _, id := range expired {
			sess, ok := sh.sessions[id]
			// Recheck: the session may have been used since the read pass.
			if !ok || !sess.LastSeen().Before(cutoff) {
				continue
			}
			delete(sh.sessions, id)
			s.count.Add(-1)
			removed++
			if s.onExpire != nil {
				s.onExpire(id)
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

func (s *MemoryStore) startJanitor(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.janitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep(s.now())
			}
		}
	}()
}

// Close stops the janitor. Further Create calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.stopChan)
	s.wg.Wait()
	return nil
}
