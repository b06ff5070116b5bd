package storage

import (
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/volmerge/internal/models"
)

type SessionStore struct {
	sessions map[string]*models.MergeSession
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.MergeSession),
	}
}

func (s *SessionStore) Set(sessionID string, session *models.MergeSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

// Update runs fn on the session while holding the write lock, so review
// mutations on the same session never interleave. It reports false when the
// session does not exist.
func (s *SessionStore) Update(sessionID string, fn func(*models.MergeSession) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return false, nil
	}
	return true, fn(session)
}

// View runs fn on the session while holding the read lock
func (s *SessionStore) View(sessionID string, fn func(*models.MergeSession)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return false
	}
	fn(session)
	return true
}

// Summaries lists every session, oldest first
func (s *SessionStore) Summaries() []models.SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, session.Summary())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes a session and reports whether it existed
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	return exists
}
