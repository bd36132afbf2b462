// Ollama HTTP adapter.
// OllamaProvider calls a local Ollama REST API using net/http, for running the
// generation pipeline against a self-hosted model.
// Endpoints used:
//   - POST /api/chat: non-streaming chat completion
//   - GET  /api/tags: health check (lists available models)
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skillsteps/skillsteps/pkg/apperr"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"

	// maxErrorBody caps how much of a non-2xx body is kept on the error.
	maxErrorBody = 4096
)

// OllamaProvider implements LLMProvider against a running Ollama instance.
type OllamaProvider struct {
	baseURL    string
	sampling   Sampling
	httpClient *http.Client
}

// NewOllamaProvider creates an OllamaProvider; timeout <= 0 means 60s.
func NewOllamaProvider(baseURL string, sampling Sampling, timeout time.Duration) *OllamaProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaProvider{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sampling: sampling,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ─── internal Ollama JSON types ──────────────────────────────────────────────

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         *ollamaChatMessage `json:"message"`
	DoneReason      string             `json:"done_reason"`
	Done            bool               `json:"done"`
	PromptEvalCount int                `json:"prompt_eval_count"`
	EvalCount       int                `json:"eval_count"`
}

// ─── LLMProvider implementation ─────────────────────────────────────────────

// ChatCompletion performs a non-streaming chat via POST /api/chat.
func (p *OllamaProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Sampling.Model
	if model == "" {
		model = p.sampling.Model
	}

	msgs := make([]ollamaChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = ollamaChatMessage(m)
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   false,
		Options:  buildChatOptions(req.Sampling),
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: encode request: %w", err)
	}

	respBody, postErr := p.doPost(ctx, "/api/chat", body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close() //nolint:errcheck

	var ollamaResp ollamaChatResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&ollamaResp); decodeErr != nil {
		e := apperr.Upstream(0, "", "unusable response body")
		e.Err = decodeErr
		return nil, e
	}
	if ollamaResp.Message == nil {
		return nil, apperr.Upstream(0, "", "no content returned")
	}
	return &ChatResponse{
		Content:    ollamaResp.Message.Content,
		StopReason: ollamaResp.DoneReason,
		Tokens:     ollamaResp.PromptEvalCount + ollamaResp.EvalCount,
	}, nil
}

// buildChatOptions converts Sampling into the Ollama options map.
// Sampling is already merged with the defaults, so a zero knob is an explicit
// choice and is sent. num_predict is left out when MaxTokens is not positive.
func buildChatOptions(s Sampling) map[string]any {
	opts := map[string]any{
		"temperature":       s.Temperature,
		"top_p":             s.TopP,
		"frequency_penalty": s.FrequencyPenalty,
		"presence_penalty":  s.PresencePenalty,
	}
	if s.MaxTokens > 0 {
		opts["num_predict"] = s.MaxTokens
	}
	return opts
}

// ModelInfo returns static metadata for this provider/model.
func (p *OllamaProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.sampling.Model,
		Provider:  ProviderOllama,
		MaxTokens: p.sampling.MaxTokens,
	}
}

// HealthCheck calls GET /api/tags, returns nil if Ollama is reachable.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperr.Transport(err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return apperr.Upstream(resp.StatusCode, "", "ollama healthcheck failed")
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// doPost sends a POST request to baseURL+path and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (p *OllamaProvider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperr.Upstream(resp.StatusCode, strings.TrimSpace(string(raw)), "ollama post "+path+" failed")
	}
	return resp.Body, nil
}
