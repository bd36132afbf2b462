// Package llm defines the model-agnostic completion abstraction.
// All types here are shared between the provider interface and adapters.
package llm

// Message roles understood by every adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string
	Content string
}

// Sampling holds the model id and the sampling knobs sent with a completion.
type Sampling struct {
	Model            string
	MaxTokens        int
	Temperature      float32
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
}

// SamplingOverride replaces individual Sampling fields for one call.
// A nil field keeps the default; a non-nil field wins even when it holds zero.
type SamplingOverride struct {
	Model            *string
	MaxTokens        *int
	Temperature      *float32
	TopP             *float32
	FrequencyPenalty *float32
	PresencePenalty  *float32
}

// Merge returns s with every field set in o applied.
func (s Sampling) Merge(o *SamplingOverride) Sampling {
	if o == nil {
		return s
	}
	if o.Model != nil {
		s.Model = *o.Model
	}
	if o.MaxTokens != nil {
		s.MaxTokens = *o.MaxTokens
	}
	if o.Temperature != nil {
		s.Temperature = *o.Temperature
	}
	if o.TopP != nil {
		s.TopP = *o.TopP
	}
	if o.FrequencyPenalty != nil {
		s.FrequencyPenalty = *o.FrequencyPenalty
	}
	if o.PresencePenalty != nil {
		s.PresencePenalty = *o.PresencePenalty
	}
	return s
}

// ChatRequest is the input for a non-streaming chat completion.
// Sampling is already resolved; adapters send it as-is.
type ChatRequest struct {
	Messages []Message
	Sampling Sampling
}

// ChatResponse is the output from a non-streaming chat completion.
type ChatResponse struct {
	Content    string // The assistant message text.
	StopReason string // "stop" | "length" | ...
	Tokens     int    // Total tokens consumed (prompt + completion), when reported.
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "mistralai/mistral-7b-instruct", "llama3.2:3b"
	Provider  string // e.g. "openrouter", "ollama"
	MaxTokens int    // Default completion budget.
}
