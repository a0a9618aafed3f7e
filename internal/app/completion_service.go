package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gopherai-chatbot/internal/ai"
	"gopherai-chatbot/internal/model"
	"gopherai-chatbot/internal/prompts"
)

type ProviderFactory interface {
	New(ctx context.Context, name string) (ai.Provider, error)
}

// CompletionArchive receives an accounting record after every successful
// completion.
type CompletionArchive interface {
	Publish(ctx context.Context, record model.CompletionRecord) error
}

type CompletionInput struct {
	MaxTokens   int
	Temperature float64
	// LastUserOverride, when set, replaces the content of the final prompt
	// entry if that entry is a user turn. The stored session is not changed.
	LastUserOverride string
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type CompletionResult struct {
	Message  model.Message
	Usage    Usage
	Provider string
	Model    string
}

type ProviderInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// CompletionService turns a session into a provider prompt, calls the active
// provider and records the reply.
type CompletionService struct {
	prompts *prompts.Registry
	factory ProviderFactory
	archive CompletionArchive
	logger  *zap.Logger

	mu       sync.RWMutex
	provider ai.Provider
}

func NewCompletionService(
	ctx context.Context,
	registry *prompts.Registry,
	factory ProviderFactory,
	providerName string,
	archive CompletionArchive,
	logger *zap.Logger,
) (*CompletionService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	provider, err := factory.New(ctx, ai.NormalizeName(providerName))
	if err != nil {
		return nil, err
	}
	return &CompletionService{
		prompts:  registry,
		factory:  factory,
		archive:  archive,
		logger:   logger,
		provider: provider,
	}, nil
}

func (s *CompletionService) active() ai.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

func (s *CompletionService) ActiveProvider() ProviderInfo {
	p := s.active()
	return ProviderInfo{Provider: p.Name(), Model: p.Model()}
}

// SwitchProvider rebinds the service to the named provider. Unknown names
// silently select ai.DefaultProvider. Switching to the provider already in use
// is a no-op.
func (s *CompletionService) SwitchProvider(ctx context.Context, name string) (ProviderInfo, error) {
	target := ai.NormalizeName(name)
	if current := s.active(); current.Name() == target {
		return ProviderInfo{Provider: current.Name(), Model: current.Model()}, nil
	}

	next, err := s.factory.New(ctx, target)
	if err != nil {
		return ProviderInfo{}, fmt.Errorf("switch provider failed: %w", err)
	}

	s.mu.Lock()
	s.provider = next
	s.mu.Unlock()

	s.logger.Info("llm provider switched", zap.String("provider", next.Name()), zap.String("model", next.Model()))
	return ProviderInfo{Provider: next.Name(), Model: next.Model()}, nil
}

// BuildPrompt returns the system prompt for the session's prompt type followed
// by every stored message verbatim.
func (s *CompletionService) BuildPrompt(session *model.Session, lastUserOverride string) []ai.ChatMessage {
	history := session.Messages()
	messages := make([]ai.ChatMessage, 0, len(history)+1)
	messages = append(messages, ai.ChatMessage{
		Role:    model.RoleSystem,
		Content: s.prompts.Resolve(session.PromptType()),
	})
	for _, m := range history {
		messages = append(messages, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}

	if lastUserOverride != "" {
		last := len(messages) - 1
		if messages[last].Role == model.RoleUser {
			messages[last].Content = lastUserOverride
		}
	}
	return messages
}

// Complete runs one completion. The provider call is made without holding
// any session lock. On failure the session is left untouched and the error is
// a *CompletionError.
func (s *CompletionService) Complete(ctx context.Context, session *model.Session, input CompletionInput) (*CompletionResult, error) {
	provider := s.active()
	messages := s.BuildPrompt(session, input.LastUserOverride)

	tokenizer := provider.Tokenizer()
	if tokenizer == nil {
		tokenizer = ai.ApproxTokenizer{}
	}
	promptTokens := 0
	for _, m := range messages {
		promptTokens += tokenizer.CountTokens(m.Content)
	}

	started := time.Now()
	reply, err := provider.Generate(ctx, messages, ai.GenerateOptions{
		MaxTokens:   input.MaxTokens,
		Temperature: input.Temperature,
	})
	if err != nil {
		s.logger.Warn("llm completion failed",
			zap.String("session_id", session.ID()),
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)
		return nil, &CompletionError{Err: err}
	}

	completionTokens := tokenizer.CountTokens(reply)
	usage := Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}

	msg := session.AddMessage(model.RoleAssistant, reply)
	s.logger.Info("llm completion finished",
		zap.String("session_id", session.ID()),
		zap.String("provider", provider.Name()),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
		zap.Duration("latency", time.Since(started)),
	)

	s.archiveCompletion(ctx, session, provider, msg, usage)

	return &CompletionResult{
		Message:  msg,
		Usage:    usage,
		Provider: provider.Name(),
		Model:    provider.Model(),
	}, nil
}

func (s *CompletionService) archiveCompletion(ctx context.Context, session *model.Session, provider ai.Provider, msg model.Message, usage Usage) {
	if s.archive == nil {
		return
	}
	record := model.CompletionRecord{
		SessionID:        session.ID(),
		Provider:         provider.Name(),
		Model:            provider.Model(),
		PromptType:       session.PromptType(),
		Reply:            msg.Content,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CreatedAt:        msg.Timestamp,
	}
	if err := s.archive.Publish(context.WithoutCancel(ctx), record); err != nil {
		s.logger.Warn("archive completion failed", zap.String("session_id", session.ID()), zap.Error(err))
	}
}
