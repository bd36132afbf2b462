// Completion provider interface.
// Adapters (OpenRouter, Ollama, mock) implement this interface so the
// generation pipeline is never coupled to a specific vendor.
package llm

import (
	"context"
	"strings"

	"github.com/skillsteps/skillsteps/pkg/apperr"
)

// LLMProvider is the model-agnostic interface for completion calls.
// Implementations must report failures as *apperr.Error with KindTransport,
// KindUpstream or KindConfiguration.
type LLMProvider interface {
	// ChatCompletion performs a single blocking, non-streaming round trip.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}

// TutorSystemPrompt frames the assistant for every generation call.
const TutorSystemPrompt = "You are a helpful AI tutor specializing in creating personalized learning paths and providing educational content."

// Complete sends prompt as the user turn after the tutor system turn and
// returns the raw completion text. A response without usable text is an
// upstream error.
func Complete(ctx context.Context, p LLMProvider, prompt string, sampling Sampling) (string, error) {
	resp, err := p.ChatCompletion(ctx, ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: TutorSystemPrompt},
			{Role: RoleUser, Content: prompt},
		},
		Sampling: sampling,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", apperr.Upstream(0, "", "no content returned")
	}
	return resp.Content, nil
}
