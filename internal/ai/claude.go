package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultAnthropicVersion = "2023-06-01"

type ClaudeConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Version string
}

// ClaudeProvider talks to the Anthropic Messages API. System entries are lifted
// out of the message list into the top-level system field.
type ClaudeProvider struct {
	httpClient *http.Client
	cfg        ClaudeConfig
	tokenizer  Tokenizer
}

func NewClaudeProvider(httpClient *http.Client, cfg ClaudeConfig) *ClaudeProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Version == "" {
		cfg.Version = defaultAnthropicVersion
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ClaudeProvider{
		httpClient: httpClient,
		cfg:        cfg,
		tokenizer:  NewTokenizer(ProviderClaude, cfg.Model),
	}
}

func (p *ClaudeProvider) Name() string         { return ProviderClaude }
func (p *ClaudeProvider) Model() string        { return p.cfg.Model }
func (p *ClaudeProvider) Tokenizer() Tokenizer { return p.tokenizer }

type claudeRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *ClaudeProvider) Generate(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (string, error) {
	var system []string
	turns := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	bodyBytes, err := json.Marshal(claudeRequest{
		Model:       p.cfg.Model,
		System:      strings.Join(system, "\n\n"),
		Messages:    turns,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal claude request failed: %w", err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build claude request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", p.cfg.Version)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read claude response failed: %w", err)
	}

	var parsed claudeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode >= 300 {
			return "", fmt.Errorf("claude response status %d: %s", resp.StatusCode, string(raw))
		}
		return "", fmt.Errorf("parse claude json failed: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("claude api error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("claude response status %d: %s", resp.StatusCode, string(raw))
	}

	var out strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("empty claude content")
	}
	return out.String(), nil
}
