package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatrelay/internal/chat"
)

func TestClaude_CreateCompletion(t *testing.T) {
	var captured claudeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("unexpected version header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "hi there"}],
			"usage": {"input_tokens": 3, "output_tokens": 2}
		}`))
	}))
	defer server.Close()

	p, err := NewClaude(Config{
		Model:   "claude-3-opus-20240229",
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, server.Client())
	if err != nil {
		t.Fatalf("NewClaude failed: %v", err)
	}

	answer, tokens, err := p.CreateCompletion(context.Background(), []chat.Message{
		{Role: chat.RoleSystem, Content: "embedded prompt"},
		{Role: chat.RoleUser, Content: "hello"},
		{Role: chat.RoleUser, Content: "are you there"},
		{Role: chat.RoleAssistant, Content: "   "},
		{Role: chat.RoleUser, Content: "still here"},
	})
	if err != nil {
		t.Fatalf("CreateCompletion failed: %v", err)
	}
	if answer != "hi there" {
		t.Errorf("unexpected answer %q", answer)
	}
	// Токены считаются как вход плюс выход.
	if tokens != 5 {
		t.Errorf("expected 5 tokens, got %d", tokens)
	}

	// system уходит отдельным полем, не в списке сообщений.
	if captured.System != "embedded prompt" {
		t.Errorf("expected the embedded system prompt in the side channel, got %q", captured.System)
	}
	for _, m := range captured.Messages {
		if m.Role == "system" {
			t.Errorf("system message leaked into the message list: %+v", m)
		}
	}

	// Подряд идущие user-сообщения склеены, пустой ответ заменён placeholder-ом.
	if len(captured.Messages) != 3 {
		t.Fatalf("expected 3 wire messages, got %d: %+v", len(captured.Messages), captured.Messages)
	}
	if captured.Messages[0].Content != "hello\nare you there" {
		t.Errorf("expected consecutive user messages merged, got %q", captured.Messages[0].Content)
	}
	if captured.Messages[1].Content != defaultEmptyPlaceholder {
		t.Errorf("expected the empty assistant message replaced, got %q", captured.Messages[1].Content)
	}
}

func TestClaude_ConfiguredSystemPromptFallback(t *testing.T) {
	var captured claudeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "ok"}], "usage": {"input_tokens": 1, "output_tokens": 1}}`))
	}))
	defer server.Close()

	p, err := NewClaude(Config{
		Model:        "claude-3-haiku-20240307",
		BaseURL:      server.URL,
		SystemPrompt: "configured prompt",
	}, server.Client())
	if err != nil {
		t.Fatalf("NewClaude failed: %v", err)
	}

	if _, _, err := p.CreateCompletion(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "hello"}}); err != nil {
		t.Fatalf("CreateCompletion failed: %v", err)
	}
	if captured.System != "configured prompt" {
		t.Errorf("expected the configured prompt as fallback, got %q", captured.System)
	}
}

func TestClaude_MultipleContentBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "first option"},
				{"type": "text", "text": "second option"}
			],
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`))
	}))
	defer server.Close()

	p, err := NewClaude(Config{Model: "claude-3-opus-20240229", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("NewClaude failed: %v", err)
	}

	answer, _, err := p.CreateCompletion(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "hello"}})
	if err != nil {
		t.Fatalf("CreateCompletion failed: %v", err)
	}
	want := "1⃣\nfirst option\n\n2⃣\nsecond option"
	if answer != want {
		t.Errorf("expected %q, got %q", want, answer)
	}
}

func TestClaude_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	p, err := NewClaude(Config{Model: "claude-3-opus-20240229", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("NewClaude failed: %v", err)
	}

	_, _, err = p.CreateCompletion(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "hello"}})
	var rateLimited *chat.RateLimitError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected a rate limit error, got %v", err)
	}
	if rateLimited.Provider != "claude" {
		t.Errorf("unexpected provider %q", rateLimited.Provider)
	}
}
