package llm

import (
	"strings"
	"time"

	"github.com/skillsteps/skillsteps/pkg/apperr"
)

// Provider keys accepted by Settings.Provider and the Router.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderMock       = "mock"
)

// Settings is the process-wide completion configuration.
// Built once at startup and never mutated, so it is safe to share.
type Settings struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Referer    string // sent as HTTP-Referer (OpenRouter attribution)
	Title      string // sent as X-Title
	Timeout    time.Duration
	MaxRetries int
	Sampling   Sampling
}

// Validate reports a configuration error that would make every completion
// call fail. Callers run it before any network activity.
func (s Settings) Validate() error {
	switch s.Provider {
	case ProviderMock:
		return nil
	case ProviderOpenRouter:
		if strings.TrimSpace(s.APIKey) == "" {
			return apperr.Configuration("OPENROUTER_API_KEY is not set")
		}
	case ProviderOllama:
	default:
		return apperr.Configuration("unknown LLM provider %q", s.Provider)
	}
	if strings.TrimSpace(s.BaseURL) == "" {
		return apperr.Configuration("base URL is not set for provider %q", s.Provider)
	}
	if strings.TrimSpace(s.Sampling.Model) == "" {
		return apperr.Configuration("model id is not set for provider %q", s.Provider)
	}
	return nil
}
