package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"gopherai-chatbot/internal/model"
	"gopherai-chatbot/internal/pkg/fileextract"
	"gopherai-chatbot/internal/prompts"
	"gopherai-chatbot/internal/repository"
)

const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

type FileExtractor interface {
	Extract(path string, maxLength int) (string, error)
}

type CompletionRecordLister interface {
	ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.CompletionRecord, error)
}

type ChatDefaults struct {
	PromptType   string
	MaxTokens    int
	Temperature  float64
	MaxFileChars int
	UploadDir    string
}

type ChatService struct {
	store       *repository.SessionStore
	prompts     *prompts.Registry
	completions *CompletionService
	extractor   FileExtractor
	records     CompletionRecordLister
	defaults    ChatDefaults
	logger      *zap.Logger
}

type ChatMessageInput struct {
	Role    string
	Content string
}

type ChatInput struct {
	SessionID   string
	Messages    []ChatMessageInput
	MaxTokens   *int
	Temperature *float64
	PromptType  *string
}

type ChatResult struct {
	SessionID string
	Message   model.Message
	Usage     Usage
}

type UploadInput struct {
	Filename   string
	Content    io.Reader
	SessionID  string
	Message    string
	PromptType string
}

type UploadResult struct {
	Filename   string
	FileID     string
	SessionID  string
	Attachment model.FileAttachment
	Completion *CompletionResult
}

func NewChatService(
	store *repository.SessionStore,
	registry *prompts.Registry,
	completions *CompletionService,
	extractor FileExtractor,
	records CompletionRecordLister,
	defaults ChatDefaults,
	logger *zap.Logger,
) *ChatService {
	if defaults.PromptType == "" {
		defaults.PromptType = registry.DefaultKey()
	}
	if defaults.MaxTokens <= 0 {
		defaults.MaxTokens = DefaultMaxTokens
	}
	if defaults.Temperature < 0 || defaults.Temperature > 2 {
		defaults.Temperature = DefaultTemperature
	}
	if defaults.MaxFileChars <= 0 {
		defaults.MaxFileChars = fileextract.DefaultMaxLength
	}
	if defaults.UploadDir == "" {
		defaults.UploadDir = "uploads"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		store:       store,
		prompts:     registry,
		completions: completions,
		extractor:   extractor,
		records:     records,
		defaults:    defaults,
		logger:      logger,
	}
}

// Chat appends the caller's user turns to the session and asks the active
// provider for a reply. Entries with any role other than "user" are dropped.
func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	maxTokens := s.defaults.MaxTokens
	if input.MaxTokens != nil {
		maxTokens = *input.MaxTokens
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max_tokens must be positive", ErrInvalidInput)
	}
	temperature := s.defaults.Temperature
	if input.Temperature != nil {
		temperature = *input.Temperature
	}
	if temperature < 0 || temperature > 2 {
		return nil, fmt.Errorf("%w: temperature must be within [0, 2]", ErrInvalidInput)
	}

	session := s.resolveSession(input.SessionID, input.PromptType)
	for _, m := range input.Messages {
		if m.Role == model.RoleUser {
			session.AddMessage(model.RoleUser, m.Content)
			continue
		}
		if !model.IsValidRole(m.Role) {
			s.logger.Debug("dropping message with unknown role",
				zap.String("session_id", session.ID()),
				zap.String("role", m.Role),
			)
		}
	}

	result, err := s.completions.Complete(ctx, session, CompletionInput{
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}
	return &ChatResult{
		SessionID: session.ID(),
		Message:   result.Message,
		Usage:     result.Usage,
	}, nil
}

// resolveSession looks up or creates the session for a chat request. A
// non-nil prompt type always overwrites an existing session's type.
func (s *ChatService) resolveSession(sessionID string, promptType *string) *model.Session {
	initial := s.defaults.PromptType
	if promptType != nil && *promptType != "" {
		initial = *promptType
	}
	session, created := s.store.GetOrCreate(sessionID, initial)
	if created {
		s.logger.Debug("session created", zap.String("session_id", session.ID()), zap.String("prompt_type", initial))
		return session
	}
	if promptType != nil {
		s.store.SetPromptType(session, *promptType)
	}
	return session
}

func (s *ChatService) UpdatePromptType(sessionID, promptType string) (*model.Session, error) {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !s.prompts.Has(promptType) {
		return nil, fmt.Errorf("%w: %s. Available types: %s",
			ErrInvalidPromptType, promptType, strings.Join(s.prompts.Keys(), ", "))
	}
	s.store.SetPromptType(session, promptType)
	return session, nil
}

// Upload stores the file under the upload directory, records it on the
// session and, when a message accompanies it, runs a completion over the
// extracted file content.
func (s *ChatService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	filename := filepath.Base(strings.TrimSpace(input.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if input.Content == nil {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	var promptType *string
	if input.PromptType != "" {
		promptType = &input.PromptType
	}
	session := s.resolveSession(input.SessionID, promptType)

	fileID := session.ID() + "_" + filename
	storedPath := filepath.Join(s.defaults.UploadDir, fileID)
	if err := saveUpload(storedPath, input.Content); err != nil {
		return nil, err
	}

	fileMessage := "Uploaded file: " + filename
	if input.Message != "" {
		fileMessage = input.Message + "\n\nFile: " + filename
	}
	attachment := session.AddFile(filename, storedPath, input.Message)
	session.AddMessage(model.RoleUser, fileMessage)

	s.logger.Info("file uploaded",
		zap.String("session_id", session.ID()),
		zap.String("filename", filename),
		zap.String("path", storedPath),
	)

	result := &UploadResult{
		Filename:   filename,
		FileID:     fileID,
		SessionID:  session.ID(),
		Attachment: attachment,
	}
	if input.Message == "" {
		return result, nil
	}

	content, err := s.extractor.Extract(storedPath, s.defaults.MaxFileChars)
	if err != nil {
		return nil, fmt.Errorf("extract upload failed: %w", err)
	}
	completion, err := s.completions.Complete(ctx, session, CompletionInput{
		MaxTokens:        s.defaults.MaxTokens,
		Temperature:      s.defaults.Temperature,
		LastUserOverride: input.Message + "\n\nFile content:\n" + content,
	})
	if err != nil {
		return nil, err
	}
	result.Completion = completion
	return result, nil
}

func saveUpload(path string, content io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create upload dir failed: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file failed: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write upload file failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close upload file failed: %w", err)
	}
	return nil
}

func (s *ChatService) GetSession(sessionID string) (*model.Session, error) {
	return s.store.Get(sessionID)
}

func (s *ChatService) PromptTypes() map[string]string {
	return s.prompts.All()
}

func (s *ChatService) ListCompletions(ctx context.Context, sessionID string, limit int) ([]model.CompletionRecord, error) {
	if s.records == nil {
		return nil, ErrArchiveDisabled
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidInput
	}
	return s.records.ListBySessionID(ctx, sessionID, limit)
}
