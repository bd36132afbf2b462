// Provider router.
// Router selects the LLMProvider configured for the process. Every known
// adapter is registered; Settings.Provider picks which one serves requests.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"
)

// Router selects a LLMProvider for each request.
type Router struct {
	providers       map[string]LLMProvider
	defaultProvider string
}

// NewRouter creates a Router with an initial set of providers and a default key.
func NewRouter(providers map[string]LLMProvider, defaultProvider string) *Router {
	ps := make(map[string]LLMProvider, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Router{providers: ps, defaultProvider: defaultProvider}
}

// NewRouterFromSettings registers the OpenRouter, Ollama and mock adapters,
// each wrapped in a RetryProvider with s.MaxRetries, defaulting to s.Provider.
// httpClient may be nil.
func NewRouterFromSettings(s Settings, httpClient *http.Client, log *zap.SugaredLogger) *Router {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	wrap := func(p LLMProvider) LLMProvider {
		return NewRetryProvider(p, s.MaxRetries, WithRetryLogger(log))
	}
	return NewRouter(map[string]LLMProvider{
		ProviderOpenRouter: wrap(NewOpenRouterProvider(s, httpClient)),
		ProviderOllama:     wrap(NewOllamaProvider(s.BaseURL, s.Sampling, s.Timeout)),
		ProviderMock:       NewMockProvider(),
	}, s.Provider)
}

// Register adds (or replaces) a provider under the given key.
func (r *Router) Register(key string, p LLMProvider) {
	r.providers[key] = p
}

// Route returns the provider for the current request.
// Returns an error if the default provider is not registered.
func (r *Router) Route(_ context.Context) (LLMProvider, error) {
	p, ok := r.providers[r.defaultProvider]
	if !ok {
		return nil, fmt.Errorf("llm router: provider %q not registered (available: %v)", r.defaultProvider, r.keys())
	}
	return p, nil
}

// keys returns the registered provider names, sorted (for error messages).
func (r *Router) keys() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
