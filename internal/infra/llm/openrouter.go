// OpenRouter adapter.
// OpenRouter speaks the OpenAI chat-completions wire format, so the adapter
// drives it through github.com/sashabaranov/go-openai with a custom base URL.
// Attribution headers (HTTP-Referer, X-Title) are injected by a RoundTripper
// because the SDK has no per-request header hook.
package llm

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/skillsteps/skillsteps/pkg/apperr"
)

// OpenRouterProvider implements LLMProvider against an OpenAI-compatible endpoint.
type OpenRouterProvider struct {
	client   *openai.Client
	settings Settings
}

// NewOpenRouterProvider creates a provider for s.BaseURL.
// httpClient may be nil; a client with s.Timeout is created then.
func NewOpenRouterProvider(s Settings, httpClient *http.Client) *OpenRouterProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: s.Timeout}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *httpClient
	hc.Transport = &attributionTransport{base: base, referer: s.Referer, title: s.Title}

	cfg := openai.DefaultConfig(s.APIKey)
	cfg.BaseURL = strings.TrimRight(s.BaseURL, "/")
	cfg.HTTPClient = &hc

	return &OpenRouterProvider{client: openai.NewClientWithConfig(cfg), settings: s}
}

// ChatCompletion performs POST {base}/chat/completions.
func (p *OpenRouterProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(p.settings.APIKey) == "" {
		return nil, apperr.Configuration("OPENROUTER_API_KEY is not set")
	}

	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	s := req.Sampling
	if s.Model == "" {
		s.Model = p.settings.Sampling.Model
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            s.Model,
		Messages:         msgs,
		MaxTokens:        s.MaxTokens,
		Temperature:      wireFloat(s.Temperature),
		TopP:             wireFloat(s.TopP),
		FrequencyPenalty: wireFloat(s.FrequencyPenalty),
		PresencePenalty:  wireFloat(s.PresencePenalty),
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperr.Upstream(0, "", "no content returned")
	}
	choice := resp.Choices[0]
	return &ChatResponse{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Tokens:     resp.Usage.TotalTokens,
	}, nil
}

// wireFloat keeps an explicit zero on the wire. go-openai tags the sampling
// fields omitempty, so 0 would be dropped and the endpoint default (1.0 for
// temperature) would apply instead.
func wireFloat(v float32) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return v
}

// ModelInfo returns static metadata for this provider/model.
func (p *OpenRouterProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.settings.Sampling.Model,
		Provider:  ProviderOpenRouter,
		MaxTokens: p.settings.Sampling.MaxTokens,
	}
}

// HealthCheck lists models, returns nil if the endpoint accepts the key.
func (p *OpenRouterProvider) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(p.settings.APIKey) == "" {
		return apperr.Configuration("OPENROUTER_API_KEY is not set")
	}
	if _, err := p.client.ListModels(ctx); err != nil {
		return classifyOpenAIError(err)
	}
	return nil
}

// classifyOpenAIError maps go-openai failures onto the apperr taxonomy.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperr.Upstream(apiErr.HTTPStatusCode, apiErr.Message, "completion request failed")
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperr.Upstream(reqErr.HTTPStatusCode, string(reqErr.Body), "completion request failed")
	}
	if isTransportError(err) {
		return apperr.Transport(err)
	}
	e := apperr.Upstream(0, "", "unusable response body")
	e.Err = err
	return e
}

// isTransportError reports network-level failures (dial, reset, timeout).
func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// attributionTransport sets OpenRouter's optional app attribution headers.
type attributionTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer == "" && t.title == "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	if t.referer != "" {
		r.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		r.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(r)
}
