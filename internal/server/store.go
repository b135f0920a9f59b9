package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/insightify-cli/internal/ai"
	"github.com/KaramelBytes/insightify-cli/internal/profile"
	"github.com/KaramelBytes/insightify-cli/internal/table"
)

// Session is the state kept for one uploaded dataset.
type Session struct {
	ID      string
	Created time.Time
	Dataset *table.Dataset
	Report  *profile.Report
	Insight *ai.Insight
	// Selected is the index of the last charted KPI, or -1.
	Selected int
}

// Store holds sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}}
}

// Create registers a new session for ds and returns a copy of it.
func (s *Store) Create(ds *table.Dataset, rep *profile.Report) Session {
	sess := &Session{
		ID:       uuid.NewString(),
		Created:  time.Now().UTC(),
		Dataset:  ds,
		Report:   rep,
		Selected: -1,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return *sess
}

// Get returns a snapshot of the session with the given id.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Update applies fn to the session under the write lock.
func (s *Store) Update(id string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

// Delete removes a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
