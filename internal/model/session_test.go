package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSessionAddMessage_PreservesOrderAndContent(t *testing.T) {
	s := NewSession("default")
	want := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "  spaced  "},
	}
	for _, m := range want {
		s.AddMessage(m.Role, m.Content)
	}

	got := s.Messages()
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Role != want[i].Role || got[i].Content != want[i].Content {
			t.Fatalf("message %d: expected %q/%q, got %q/%q", i, want[i].Role, want[i].Content, got[i].Role, got[i].Content)
		}
		if got[i].Timestamp.IsZero() {
			t.Fatalf("message %d: expected timestamp", i)
		}
	}
}

func TestSessionAppendsRefreshUpdatedAt(t *testing.T) {
	s := NewSession("default")
	before := s.UpdatedAt()

	time.Sleep(2 * time.Millisecond)
	s.AddMessage(RoleUser, "hi")
	afterMessage := s.UpdatedAt()
	if !afterMessage.After(before) {
		t.Fatalf("expected updated_at to move forward after message")
	}

	time.Sleep(2 * time.Millisecond)
	s.AddFile("cv.pdf", "/tmp/cv.pdf", "")
	if !s.UpdatedAt().After(afterMessage) {
		t.Fatalf("expected updated_at to move forward after file")
	}
}

func TestSessionAddFile_EmptyMessageIsNull(t *testing.T) {
	s := NewSession("default")
	att := s.AddFile("cv.pdf", "/tmp/cv.pdf", "")
	if att.Message != nil {
		t.Fatalf("expected nil message, got %q", *att.Message)
	}
	if att.FileID == "" {
		t.Fatalf("expected generated file id")
	}

	att = s.AddFile("jd.txt", "/tmp/jd.txt", "compare")
	if att.Message == nil || *att.Message != "compare" {
		t.Fatalf("expected message to be kept")
	}
	if len(s.Files()) != 2 {
		t.Fatalf("expected 2 files, got %d", len(s.Files()))
	}
}

func TestSessionMessagesReturnsCopy(t *testing.T) {
	s := NewSession("default")
	s.AddMessage(RoleUser, "hi")

	msgs := s.Messages()
	msgs[0].Content = "mutated"
	if s.Messages()[0].Content != "hi" {
		t.Fatalf("expected session history to be unaffected by caller mutation")
	}
}

func TestSessionMarshalJSON(t *testing.T) {
	s := NewSession("default123")
	s.AddMessage(RoleUser, "hi")

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["id"] != s.ID() {
		t.Fatalf("expected id %q, got %v", s.ID(), decoded["id"])
	}
	if decoded["prompt_type"] != "default123" {
		t.Fatalf("expected prompt_type default123, got %v", decoded["prompt_type"])
	}
	if decoded["title"] != nil {
		t.Fatalf("expected null title, got %v", decoded["title"])
	}
	msgs, ok := decoded["messages"].([]any)
	if !ok || len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", decoded["messages"])
	}
	files, ok := decoded["files"].([]any)
	if !ok || len(files) != 0 {
		t.Fatalf("expected empty files array, got %v", decoded["files"])
	}
}

func TestNewSession_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewSession("default").ID()
		if seen[id] {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = true
	}
}

func TestIsValidRole(t *testing.T) {
	cases := map[string]bool{
		RoleSystem:    true,
		RoleUser:      true,
		RoleAssistant: true,
		"tool":        false,
		"User":        false,
		"":            false,
	}
	for role, want := range cases {
		if got := IsValidRole(role); got != want {
			t.Fatalf("IsValidRole(%q) = %v, want %v", role, got, want)
		}
	}
}
