package app

import (
	"context"
	"errors"
	"sync"

	"gopherai-chatbot/internal/ai"
	"gopherai-chatbot/internal/model"
)

type fakeProvider struct {
	name  string
	model string
	reply string
	err   error

	mu    sync.Mutex
	calls [][]ai.ChatMessage
	opts  []ai.GenerateOptions
}

func (p *fakeProvider) Name() string            { return p.name }
func (p *fakeProvider) Model() string           { return p.model }
func (p *fakeProvider) Tokenizer() ai.Tokenizer { return ai.ApproxTokenizer{} }

func (p *fakeProvider) Generate(_ context.Context, messages []ai.ChatMessage, opts ai.GenerateOptions) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]ai.ChatMessage, len(messages))
	copy(cp, messages)
	p.calls = append(p.calls, cp)
	p.opts = append(p.opts, opts)
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *fakeProvider) lastCall() []ai.ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return nil
	}
	return p.calls[len(p.calls)-1]
}

type fakeFactory struct {
	providers map[string]*fakeProvider
	requested []string
}

func (f *fakeFactory) New(_ context.Context, name string) (ai.Provider, error) {
	f.requested = append(f.requested, name)
	p, ok := f.providers[name]
	if !ok {
		return nil, errors.New("provider not configured")
	}
	return p, nil
}

type fakeArchive struct {
	mu      sync.Mutex
	records []model.CompletionRecord
	err     error
}

func (a *fakeArchive) Publish(_ context.Context, record model.CompletionRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
	return a.err
}

type fakeExtractor struct {
	content string
	err     error
	paths   []string
	limits  []int
}

func (e *fakeExtractor) Extract(path string, maxLength int) (string, error) {
	e.paths = append(e.paths, path)
	e.limits = append(e.limits, maxLength)
	return e.content, e.err
}

type fakeRecords struct {
	records []model.CompletionRecord
}

func (r *fakeRecords) ListBySessionID(_ context.Context, sessionID string, _ int) ([]model.CompletionRecord, error) {
	var out []model.CompletionRecord
	for _, rec := range r.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}
