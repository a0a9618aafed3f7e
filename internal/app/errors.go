package app

import (
	"errors"

	"gopherai-chatbot/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrSessionNotFound   = repository.ErrSessionNotFound
	ErrInvalidPromptType = errors.New("invalid prompt type")
	ErrArchiveDisabled   = errors.New("completion archive is disabled")
)

// CompletionError wraps any failure while building the prompt, counting
// tokens or calling the upstream provider.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return "error communicating with LLM: " + e.Err.Error()
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
