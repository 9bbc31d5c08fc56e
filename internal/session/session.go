// Package session keeps one search form per client for the HTTP API.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobsearch-engine/internal/form"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrTooMany  = errors.New("too many sessions")
)

type Session struct {
	ID      string
	Created time.Time

	mu       sync.Mutex
	form     *form.Form
	lastUsed time.Time
}

// Do runs fn with exclusive access to the session's form.
func (s *Session) Do(fn func(f *form.Form) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.form)
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	newForm  func() *form.Form
	now      func() time.Time
}

// NewStore keeps at most max sessions, expiring those idle longer than ttl.
func NewStore(ttl time.Duration, max int, newForm func() *form.Form) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if max <= 0 {
		max = 1000
	}
	return &Store{
		sessions: map[string]*Session{},
		ttl:      ttl,
		max:      max,
		newForm:  newForm,
		now:      time.Now,
	}
}

func (st *Store) Create() (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.max {
		st.sweepLocked()
		if len(st.sessions) >= st.max {
			return nil, ErrTooMany
		}
	}
	now := st.now()
	s := &Session{ID: uuid.NewString(), Created: now, lastUsed: now, form: st.newForm()}
	st.sessions[s.ID] = s
	return s, nil
}

// Get returns a live session and marks it used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	now := st.now()
	if now.Sub(s.idleSince()) > st.ttl {
		st.Delete(id)
		return nil, ErrNotFound
	}
	s.touch(now)
	return s, nil
}

func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Sweep drops expired sessions and reports how many went.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked()
}

func (st *Store) sweepLocked() int {
	now := st.now()
	n := 0
	for id, s := range st.sessions {
		if now.Sub(s.idleSince()) > st.ttl {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
