// Package memory holds in-process implementations of the session ports, used
// for development and tests.
package memory

import (
	"context"
	"sync"
)

// SessionRepository keeps sessions in a map. Safe for concurrent use.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]map[string]string)}
}

func (r *SessionRepository) Load(_ context.Context, key string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.sessions[key]))
	for name, value := range r.sessions[key] {
		out[name] = value
	}
	return out, nil
}

func (r *SessionRepository) Save(_ context.Context, key string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		s = make(map[string]string, len(entries))
		r.sessions[key] = s
	}
	for name, value := range entries {
		s[name] = value
	}
	return nil
}

func (r *SessionRepository) Remove(_ context.Context, key string, names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		return nil
	}
	for _, name := range names {
		delete(s, name)
	}
	if len(s) == 0 {
		delete(r.sessions, key)
	}
	return nil
}

// Len reports how many sessions hold at least one entry.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
