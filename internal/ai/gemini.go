package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey string
	Model  string
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiProvider struct {
	models    contentGenerator
	modelName string
	tokenizer Tokenizer
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return newGeminiProvider(client.Models, cfg.Model), nil
}

func newGeminiProvider(models contentGenerator, modelName string) *GeminiProvider {
	return &GeminiProvider{
		models:    models,
		modelName: modelName,
		tokenizer: NewTokenizer(ProviderGemini, modelName),
	}
}

func (p *GeminiProvider) Name() string         { return ProviderGemini }
func (p *GeminiProvider) Model() string        { return p.modelName }
func (p *GeminiProvider) Tokenizer() Tokenizer { return p.tokenizer }

func (p *GeminiProvider) Generate(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (string, error) {
	var (
		system   []*genai.Part
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, &genai.Part{Text: m.Content})
		case "assistant":
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}

	temperature := float32(opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: system}
	}

	resp, err := p.models.GenerateContent(ctx, p.modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini API GenerateContent error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("Gemini API returned no valid candidates")
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini API response part was not text")
	}
	return text, nil
}
