package repository

import (
	"errors"
	"sync"

	"gopherai-chatbot/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the process-wide registry of live sessions. Sessions are
// never evicted; the map grows for the lifetime of the process.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*model.Session)}
}

// GetOrCreate returns the session registered under id. When id is empty or
// unknown a new session with a fresh id is registered and created is true;
// the caller-supplied id is never adopted.
func (s *SessionStore) GetOrCreate(id string, promptType string) (session *model.Session, created bool) {
	if id != "" {
		s.mu.RLock()
		existing, ok := s.sessions[id]
		s.mu.RUnlock()
		if ok {
			return existing, false
		}
	}

	session = model.NewSession(promptType)
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	return session, true
}

func (s *SessionStore) Get(id string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// SetPromptType overwrites the session's prompt type without validation.
func (s *SessionStore) SetPromptType(session *model.Session, promptType string) {
	session.SetPromptType(promptType)
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
