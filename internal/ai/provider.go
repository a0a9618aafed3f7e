package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"

	DefaultProvider = ProviderOpenAI
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// Provider is one upstream text-generation backend bound to a model.
type Provider interface {
	Name() string
	Model() string
	Tokenizer() Tokenizer
	Generate(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (string, error)
}

type Settings struct {
	OpenAI  ChatConfig
	Claude  ClaudeConfig
	Gemini  GeminiConfig
	Timeout time.Duration
}

// Factory builds providers by name.
type Factory struct {
	settings   Settings
	httpClient *http.Client
}

func NewFactory(settings Settings) *Factory {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Factory{
		settings:   settings,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NormalizeName maps a provider name onto a supported one. Unknown names fall
// back to DefaultProvider instead of failing.
func NormalizeName(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case ProviderOpenAI, ProviderClaude, ProviderGemini:
		return n
	default:
		return DefaultProvider
	}
}

func IsSupported(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderOpenAI, ProviderClaude, ProviderGemini:
		return true
	}
	return false
}

// New returns a freshly initialised provider with its own tokenizer.
func (f *Factory) New(ctx context.Context, name string) (Provider, error) {
	switch NormalizeName(name) {
	case ProviderClaude:
		return NewClaudeProvider(f.httpClient, f.settings.Claude), nil
	case ProviderGemini:
		p, err := NewGeminiProvider(ctx, f.settings.Gemini)
		if err != nil {
			return nil, fmt.Errorf("init gemini provider failed: %w", err)
		}
		return p, nil
	default:
		return NewOpenAIProvider(NewOpenAICompatibleClient(f.httpClient), f.settings.OpenAI), nil
	}
}
