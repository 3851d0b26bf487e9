package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OllamaProvider struct {
	client *http.Client
	apiURL string
	model  string
}

func NewOllamaProvider(cfg Config) *OllamaProvider {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		client: &http.Client{Timeout: 60 * time.Second},
		apiURL: apiURL,
		model:  cfg.Model,
	}
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if p.model == "" {
		return "", errors.New("ollama model is required")
	}

	reqBody := ollamaRequest{
		Model:  p.model,
		Stream: false,
		Messages: []ollamaMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	if req.JSONOnly {
		reqBody.Format = "json"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var decoded ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if decoded.Message.Content == "" {
		return "", errors.New("ollama: empty message content in response")
	}
	return decoded.Message.Content, nil
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
}
