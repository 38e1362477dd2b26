package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithShardCount sets the number of map shards.
func WithShardCount(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionTTL evicts sessions idle for longer than ttl.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithJanitorInterval sets how often idle sessions are swept.
func WithJanitorInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.janitorInterval = interval
		}
	}
}

// WithMessageLogSize sets how many status messages each session keeps.
func WithMessageLogSize(n int) Option {
	return func(s *MemoryStore) {
		if n >= 0 {
			s.messageLogSize = n
		}
	}
}

// WithDedupeSize bounds each session's idempotency cache.
func WithDedupeSize(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithExpireHook is called with the id of every session evicted for idling.
func WithExpireHook(fn func(id string)) Option {
	return func(s *MemoryStore) {
		s.onExpire = fn
	}
}

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *MemoryStore) {
		if fn != nil {
			s.newID = fn
		}
	}
}
