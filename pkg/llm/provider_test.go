package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProvider(t *testing.T) {
	cases := []struct {
		provider string
		wantErr  bool
	}{
		{"openai", false},
		{"Anthropic", false},
		{"ollama", false},
		{"bedrock", true},
	}
	for _, tc := range cases {
		_, err := NewProvider(Config{Provider: tc.provider, Model: "m"})
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: unexpected err=%v", tc.provider, err)
		}
	}
}

func TestOpenAICompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Fatal("expected json_object response format")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"polarity":"neutral"}`}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{Model: "test-model", APIURL: srv.URL})
	out, err := p.Complete(context.Background(), CompletionRequest{System: "sys", User: "text", JSONOnly: true})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !strings.Contains(out, "neutral") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestOpenAICompleteNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{Model: "test-model", APIURL: srv.URL})
	if _, err := p.Complete(context.Background(), CompletionRequest{User: "text"}); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("anthropic-version") == "" {
			t.Fatal("missing anthropic-version header")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "ok"}},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider(Config{Model: "test-model", APIURL: srv.URL})
	out, err := p.Complete(context.Background(), CompletionRequest{User: "text"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Fatal("expected non-streaming request")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "ok"},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(Config{Model: "test-model", APIURL: srv.URL})
	out, err := p.Complete(context.Background(), CompletionRequest{User: "text"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output: %s", out)
	}
}
