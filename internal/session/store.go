package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fcmolina/docqa/internal/metrics"
)

// Store is a thread-safe in-memory session registry with idle eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	log      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStore(ttl time.Duration, log *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		log:      log,
	}
}

// Create registers a fresh, empty session.
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString(), time.Now())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	s.log.Info("session created", "session_id", sess.ID)
	return sess
}

// Get returns the session with the given id, or nil. A hit counts as activity.
// A session idle past the TTL is expired here even if the janitor has not run yet.
func (s *Store) Get(id string) *Session {
	now := time.Now()
	s.mu.Lock()
	sess := s.sessions[id]
	if sess != nil {
		if idle, busy := sess.idleSince(now); !busy && idle > s.ttl {
			delete(s.sessions, id)
			n := len(s.sessions)
			s.mu.Unlock()
			metrics.SessionsActive.Set(float64(n))
			s.log.Info("session expired", "session_id", id)
			return nil
		}
	}
	s.mu.Unlock()
	if sess != nil {
		sess.touch(now)
	}
	return sess
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL. In-flight sessions are kept.
func (s *Store) Cleanup() int {
	now := time.Now()
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		idle, busy := sess.idleSince(now)
		if !busy && idle > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	if removed > 0 {
		s.log.Info("sessions expired", "removed", removed, "active", n)
	}
	return removed
}

// Start runs the eviction loop until ctx is cancelled or Stop is called.
func (s *Store) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	interval := s.ttl / 4
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop halts the eviction loop and waits for it to exit.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
