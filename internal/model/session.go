package model

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is an append-only conversation thread held in process memory.
// All access goes through its methods, which serialize appends and reads
// behind a per-session lock.
type Session struct {
	mu sync.Mutex

	id         string
	messages   []Message
	files      []FileAttachment
	createdAt  time.Time
	updatedAt  time.Time
	promptType string
}

// SessionSnapshot is a point-in-time copy of a Session, used for JSON output.
type SessionSnapshot struct {
	ID         string           `json:"id"`
	Messages   []Message        `json:"messages"`
	Files      []FileAttachment `json:"files"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Title      *string          `json:"title"` // never set, serialised as null
	PromptType string           `json:"prompt_type"`
}

func NewSession(promptType string) *Session {
	now := time.Now()
	return &Session{
		id:         uuid.NewString(),
		messages:   []Message{},
		files:      []FileAttachment{},
		createdAt:  now,
		updatedAt:  now,
		promptType: promptType,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) AddMessage(role, content string) Message {
	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.updatedAt = msg.Timestamp
	return msg
}

// AddFile records an attachment. An empty message is stored as null.
func (s *Session) AddFile(filename, storedPath, message string) FileAttachment {
	att := FileAttachment{
		Filename:   filename,
		StoredPath: storedPath,
		UploadTime: time.Now(),
		FileID:     uuid.NewString(),
	}
	if message != "" {
		m := message
		att.Message = &m
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, att)
	s.updatedAt = att.UploadTime
	return att
}

// Messages returns a copy of the message history in insertion order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Files() []FileAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FileAttachment, len(s.files))
	copy(out, s.files)
	return out
}

func (s *Session) PromptType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promptType
}

func (s *Session) SetPromptType(promptType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptType = promptType
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)
	files := make([]FileAttachment, len(s.files))
	copy(files, s.files)

	return SessionSnapshot{
		ID:         s.id,
		Messages:   messages,
		Files:      files,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
		PromptType: s.promptType,
	}
}

func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}
