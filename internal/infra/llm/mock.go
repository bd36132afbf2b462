package llm

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
)

// MockProvider answers without any network call. Used when TESTING_MODE is
// on and by tests that need a deterministic completion.
//
// Prompts asking for a "steps" JSON object get a two-step path; every other
// prompt gets a short text echo of its first line.
type MockProvider struct {
	calls atomic.Int64
}

// NewMockProvider returns a ready MockProvider.
func NewMockProvider() *MockProvider { return &MockProvider{} }

type mockStep struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Difficulty    string `json:"difficulty"`
	EstimatedTime string `json:"estimatedTime"`
}

// ChatCompletion returns canned content derived from the last user message.
func (m *MockProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt := lastUserContent(req.Messages)
	if strings.Contains(prompt, `"steps"`) {
		raw, err := json.Marshal(map[string]any{"steps": []mockStep{
			{ID: 1, Title: "Introduction", Description: "Learn the fundamentals and basic concepts", Difficulty: "Beginner", EstimatedTime: "30 minutes"},
			{ID: 2, Title: "In Practice", Description: "Apply your knowledge with hands-on exercises", Difficulty: "Beginner", EstimatedTime: "45 minutes"},
		}})
		if err != nil {
			return nil, err
		}
		return &ChatResponse{Content: string(raw), StopReason: "stop"}, nil
	}

	first, _, _ := strings.Cut(strings.TrimSpace(prompt), "\n")
	return &ChatResponse{Content: "[mock completion for " + strings.TrimSpace(first) + "]", StopReason: "stop"}, nil
}

// ModelInfo returns static metadata for the mock.
func (m *MockProvider) ModelInfo() ModelMeta {
	return ModelMeta{ID: "mock", Provider: ProviderMock}
}

// HealthCheck always succeeds.
func (m *MockProvider) HealthCheck(_ context.Context) error { return nil }

// Calls returns how many completions were requested.
func (m *MockProvider) Calls() int { return int(m.calls.Load()) }

func lastUserContent(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
