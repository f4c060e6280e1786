package session

import (
	"sync"
	"time"
)

// Entry is one answered question. Entries are never modified after they are appended.
type Entry struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Session holds one user's history and pending question.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time

	history   []Entry
	pending   string
	inFlight  bool
	updatedAt time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		updatedAt: now,
	}
}

// History returns a copy of the entries in submission order.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of history entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// AppendEntry records a successful answer. It is the only way history grows.
func (s *Session) AppendEntry(question, answer string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := Entry{Question: question, Answer: answer, AskedAt: time.Now()}
	s.history = append(s.history, e)
	s.updatedAt = e.AskedAt
	return e
}

// Pending returns the question currently typed into the form.
func (s *Session) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) SetPending(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = q
	s.updatedAt = time.Now()
}

func (s *Session) ClearPendingQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = ""
}

// Begin moves the session to in-flight. It returns false if a query is already running.
func (s *Session) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	s.updatedAt = time.Now()
	return true
}

// End returns the session to idle.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.updatedAt = time.Now()
}

// InFlight reports whether a query is running.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.updatedAt = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.updatedAt), s.inFlight
}
