// Package dedupe remembers the result of requests by id so retries replay
// the recorded result instead of applying twice.
package dedupe

// Option applies a configuration option to a Cache.
type Option func(*settings)

type settings struct {
	maxSize int
}

// WithMaxSize bounds the number of remembered ids. When full the oldest id
// is evicted. maxSize <= 0 leaves the cache unbounded.
func WithMaxSize(maxSize int) Option {
	return func(s *settings) {
		s.maxSize = maxSize
	}
}
