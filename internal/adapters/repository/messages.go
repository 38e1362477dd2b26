package repository

import "sync"

// MessageLog keeps the most recent status messages of a session.
type MessageLog struct {
	mu    sync.Mutex
	max   int
	items []string
}

// NewMessageLog returns a log keeping at most max messages. max <= 0 keeps none.
func NewMessageLog(max int) *MessageLog {
	return &MessageLog{max: max}
}

// Add appends msg, dropping the oldest message when full.
func (l *MessageLog) Add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.max <= 0 {
		return
	}
	l.items = append(l.items, msg)
	if over := len(l.items) - l.max; over > 0 {
		l.items = append([]string(nil), l.items[over:]...)
	}
}

// List returns the messages oldest first.
func (l *MessageLog) List() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.items...)
}

// Clear drops every message.
func (l *MessageLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}
