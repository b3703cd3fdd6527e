package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/scaling"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionLimit is returned when the store is full of live sessions.
	ErrSessionLimit = errors.New("too many open sessions")
)

type sessionEntry struct {
	lastUsed time.Time
	recipe   *model.Recipe
	session  *scaling.Session
}

// SessionStore keeps the scaling sessions of open recipe pages. A scaling
// session is not safe for concurrent use, so every access goes through the
// store lock.
type SessionStore struct {
	now     func() time.Time
	entries map[string]*sessionEntry
	opts    []scaling.Option
	ttl     time.Duration
	limit   int
	mu      sync.Mutex
}

// NewSessionStore creates a store that forgets sessions idle for longer than
// ttl and holds at most limit live sessions. A limit of 0 means no cap.
func NewSessionStore(ttl time.Duration, limit int, opts ...scaling.Option) *SessionStore {
	return &SessionStore{
		now:     time.Now,
		entries: make(map[string]*sessionEntry),
		opts:    opts,
		ttl:     ttl,
		limit:   limit,
	}
}

// Create opens a session for recipe and returns its id. When the store is
// full, expired sessions are swept first and ErrSessionLimit is returned if
// none could be freed.
func (s *SessionStore) Create(recipe *model.Recipe) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limit > 0 && len(s.entries) >= s.limit {
		s.sweepLocked()
		if len(s.entries) >= s.limit {
			return "", fmt.Errorf("%w: limit %d", ErrSessionLimit, s.limit)
		}
	}

	id := uuid.NewString()
	s.entries[id] = &sessionEntry{
		lastUsed: s.now(),
		recipe:   recipe,
		session:  scaling.NewSession(recipe.Ingredients, s.opts...),
	}
	return id, nil
}

// With runs fn on the session with the given id while holding the store lock.
func (s *SessionStore) With(id string, fn func(recipe *model.Recipe, session *scaling.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || s.expired(entry) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	entry.lastUsed = s.now()
	return fn(entry.recipe, entry.session)
}

// Delete closes and forgets a session.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	entry.session.Close()
	delete(s.entries, id)
	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep forgets every expired session and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *SessionStore) sweepLocked() int {
	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry) {
			entry.session.Close()
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) expired(entry *sessionEntry) bool {
	return s.ttl > 0 && s.now().Sub(entry.lastUsed) > s.ttl
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("Expired scaling sessions", "count", n)
			}
		}
	}
}
