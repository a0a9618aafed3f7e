package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"gopherai-chatbot/internal/ai"
	"gopherai-chatbot/internal/app"
	"gopherai-chatbot/internal/pkg/fileextract"
	"gopherai-chatbot/internal/prompts"
	"gopherai-chatbot/internal/repository"
	"gopherai-chatbot/internal/transport/http/response"
)

type stubProvider struct {
	name  string
	reply string
	err   error
	last  []ai.ChatMessage
}

func (p *stubProvider) Name() string            { return p.name }
func (p *stubProvider) Model() string           { return p.name + "-model" }
func (p *stubProvider) Tokenizer() ai.Tokenizer { return ai.ApproxTokenizer{} }

func (p *stubProvider) Generate(_ context.Context, messages []ai.ChatMessage, _ ai.GenerateOptions) (string, error) {
	p.last = messages
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

type stubFactory struct {
	providers map[string]*stubProvider
}

func (f *stubFactory) New(_ context.Context, name string) (ai.Provider, error) {
	p, ok := f.providers[name]
	if !ok {
		return nil, errors.New("not configured")
	}
	return p, nil
}

type testEnv struct {
	router    *gin.Engine
	store     *repository.SessionStore
	provider  *stubProvider
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := &stubProvider{name: ai.ProviderOpenAI, reply: "Hello from the model"}
	factory := &stubFactory{providers: map[string]*stubProvider{
		ai.ProviderOpenAI: provider,
		ai.ProviderClaude: {name: ai.ProviderClaude, reply: "claude"},
	}}
	registry := prompts.Builtin()
	completions, err := app.NewCompletionService(context.Background(), registry, factory, "openai", nil, nil)
	if err != nil {
		t.Fatalf("completion service: %v", err)
	}

	store := repository.NewSessionStore()
	uploadDir := t.TempDir()
	chat := app.NewChatService(store, registry, completions, fileextract.New(), nil, app.ChatDefaults{UploadDir: uploadDir}, nil)

	r := gin.New()
	chatHandler := NewChatHandler(chat)
	sessionHandler := NewSessionHandler(chat)
	uploadHandler := NewUploadHandler(chat)
	providerHandler := NewProviderHandler(completions)
	r.POST("/api/chat", chatHandler.Chat)
	r.POST("/api/upload", uploadHandler.Upload)
	r.GET("/api/sessions/:id", sessionHandler.Get)
	r.POST("/api/sessions/:id/prompt-type", sessionHandler.UpdatePromptType)
	r.GET("/api/sessions/:id/completions", sessionHandler.ListCompletions)
	r.GET("/api/prompt-types", NewPromptHandler(chat).List)
	r.GET("/api/provider", providerHandler.Get)
	r.POST("/api/provider", providerHandler.Switch)

	return &testEnv{router: r, store: store, provider: provider, uploadDir: uploadDir}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestChat_SessionContinuation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]interface{}{
		"messages":   []map[string]string{{"role": "user", "content": "hi"}},
		"session_id": nil,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	first := decode[ChatResponse](t, rec)
	if first.SessionID == "" {
		t.Fatalf("expected session id in response")
	}
	if first.Message.Role != "assistant" || first.Message.Content != "Hello from the model" {
		t.Fatalf("unexpected message: %+v", first.Message)
	}
	if first.Usage.TotalTokens != first.Usage.PromptTokens+first.Usage.CompletionTokens {
		t.Fatalf("unexpected usage: %+v", first.Usage)
	}

	session, err := env.store.Get(first.SessionID)
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	before := len(session.Messages())

	rec = env.do(t, http.MethodPost, "/api/chat", map[string]interface{}{
		"messages":   []map[string]string{{"role": "user", "content": "and again"}},
		"session_id": first.SessionID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	second := decode[ChatResponse](t, rec)
	if second.SessionID != first.SessionID {
		t.Fatalf("expected same session id")
	}
	if after := len(session.Messages()); after-before != 2 {
		t.Fatalf("expected message count to grow by 2, grew by %d", after-before)
	}
}

func TestChat_BadPayload(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]interface{}{"session_id": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing messages, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/chat", map[string]interface{}{
		"messages":    []map[string]string{{"role": "user", "content": "hi"}},
		"temperature": 3.5,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range temperature, got %d", rec.Code)
	}
}

func TestChat_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.err = errors.New("quota exceeded")

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]interface{}{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decode[response.APIResponse](t, rec)
	if body.Message != "Error communicating with LLM: quota exceeded" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestUpdatePromptType(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/sessions/unknown/prompt-type", map[string]string{"prompt_type": "default123"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	session, _ := env.store.GetOrCreate("", prompts.DefaultKey)
	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID()+"/prompt-type", map[string]string{"prompt_type": "not-a-real-type"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if session.PromptType() != prompts.DefaultKey {
		t.Fatalf("expected prompt type unchanged, got %q", session.PromptType())
	}
	body := decode[response.APIResponse](t, rec)
	if !strings.Contains(body.Message, "Available types: default, default123") {
		t.Fatalf("unexpected message %q", body.Message)
	}

	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID()+"/prompt-type", map[string]string{"prompt_type": "default123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	ok := decode[PromptTypeResponse](t, rec)
	if ok.SessionID != session.ID() || ok.PromptType != "default123" || ok.Message != "Prompt type updated to 'default123'" {
		t.Fatalf("unexpected response %+v", ok)
	}
}

func TestGetSession(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/sessions/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	session, _ := env.store.GetOrCreate("", "default123")
	session.AddMessage("user", "hello")

	rec := env.do(t, http.MethodGet, "/api/sessions/"+session.ID(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[map[string]interface{}](t, rec)
	for _, key := range []string{"id", "messages", "files", "created_at", "updated_at", "title", "prompt_type"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("expected key %q in session body %v", key, body)
		}
	}
	if body["prompt_type"] != "default123" {
		t.Fatalf("unexpected prompt type %v", body["prompt_type"])
	}
}

func TestPromptTypes(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/prompt-types", nil)
	body := decode[map[string]string](t, rec)
	if len(body) != 2 || body["default"] == "" || body["default123"] == "" {
		t.Fatalf("unexpected prompt types %v", body)
	}
}

func TestListCompletions_ArchiveDisabled(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/sessions/abc/completions", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestProvider(t *testing.T) {
	env := newTestEnv(t)

	got := decode[app.ProviderInfo](t, env.do(t, http.MethodGet, "/api/provider", nil))
	if got.Provider != "openai" {
		t.Fatalf("expected openai, got %+v", got)
	}

	rec := env.do(t, http.MethodPost, "/api/provider", map[string]string{"provider": "claude"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[app.ProviderInfo](t, rec); got.Provider != "claude" || got.Model != "claude-model" {
		t.Fatalf("unexpected provider info %+v", got)
	}

	rec = env.do(t, http.MethodPost, "/api/provider", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing provider, got %d", rec.Code)
	}
}

func newMultipart(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := newMultipart(t, map[string]string{"message": "Score this resume"}, "resume.txt", "Go, Kubernetes, gRPC")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[UploadResponse](t, rec)
	if resp.Filename != "resume.txt" || resp.Message != "File uploaded successfully" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.FileID != resp.SessionID+"_resume.txt" {
		t.Fatalf("unexpected file id %q", resp.FileID)
	}
	if resp.Reply == nil || resp.Reply.Content != "Hello from the model" || resp.Usage == nil {
		t.Fatalf("expected completion in response, got %+v", resp)
	}

	stored, err := os.ReadFile(filepath.Join(env.uploadDir, resp.FileID))
	if err != nil || string(stored) != "Go, Kubernetes, gRPC" {
		t.Fatalf("expected stored upload, got %q, %v", stored, err)
	}

	last := env.provider.last[len(env.provider.last)-1]
	if last.Content != "Score this resume\n\nFile content:\nGo, Kubernetes, gRPC" {
		t.Fatalf("unexpected prompt tail %q", last.Content)
	}
}

func TestUpload_NoMessageSkipsCompletion(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := newMultipart(t, nil, "notes.md", "# notes")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[map[string]interface{}](t, rec)
	if _, ok := resp["reply"]; ok {
		t.Fatalf("expected no reply without a message")
	}
	if env.provider.last != nil {
		t.Fatalf("expected provider not to be called")
	}
}

func TestUpload_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := newMultipart(t, map[string]string{"message": "hi"}, "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
