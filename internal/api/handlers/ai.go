// HTTP handlers for the generation endpoints: the action-dispatching POST /ai
// and the path-only POST /generate.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/skillsteps/skillsteps/internal/domain/learning"
	"github.com/skillsteps/skillsteps/internal/infra/llm"
)

// Generator is the facade surface the AI handlers depend on.
type Generator interface {
	Generate(ctx context.Context, req learning.GenerationRequest) (*learning.Result, error)
}

// AIHandler serves generation requests.
type AIHandler struct {
	generator Generator
}

// NewAIHandler creates an AIHandler backed by generator.
func NewAIHandler(generator Generator) *AIHandler {
	return &AIHandler{generator: generator}
}

// SamplingOptions overrides individual sampling defaults for one request.
type SamplingOptions struct {
	Model            *string  `json:"model,omitempty"`
	MaxTokens        *int     `json:"maxTokens,omitempty"`
	Temperature      *float32 `json:"temperature,omitempty"`
	TopP             *float32 `json:"topP,omitempty"`
	FrequencyPenalty *float32 `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float32 `json:"presencePenalty,omitempty"`
}

func (o *SamplingOptions) override() *llm.SamplingOverride {
	if o == nil {
		return nil
	}
	return &llm.SamplingOverride{
		Model:            o.Model,
		MaxTokens:        o.MaxTokens,
		Temperature:      o.Temperature,
		TopP:             o.TopP,
		FrequencyPenalty: o.FrequencyPenalty,
		PresencePenalty:  o.PresencePenalty,
	}
}

// AIRequest is the request body for POST /api/v1/ai.
type AIRequest struct {
	Action     string           `json:"action"`
	Topic      string           `json:"topic"`
	StepID     int              `json:"stepId,omitempty"`
	Difficulty string           `json:"difficulty,omitempty"`
	Options    *SamplingOptions `json:"options,omitempty"`
}

// AIResponse carries the generated text. For generateLearningPath the
// content is the normalized path encoded as JSON.
type AIResponse struct {
	Content  string `json:"content"`
	Degraded bool   `json:"degraded,omitempty"`
}

// GenerateRequest is the request body for POST /api/v1/generate.
type GenerateRequest struct {
	Topic   string           `json:"topic"`
	Options *SamplingOptions `json:"options,omitempty"`
}

// GenerateResponse is a normalized learning path. Degraded is true when the
// model output was not valid JSON and the line-based fallback produced the steps.
type GenerateResponse struct {
	Topic    string                  `json:"topic"`
	Steps    []learning.LearningStep `json:"steps"`
	Degraded bool                    `json:"degraded"`
}

// AI handles POST /api/v1/ai.
//
// Response codes:
//   - 200 OK: generation succeeded
//   - 400 Bad Request: invalid JSON, unknown action or invalid arguments
//   - 502 Bad Gateway: completion endpoint unreachable or failed
//   - 503 Service Unavailable: completion client not configured
func (h *AIHandler) AI(w http.ResponseWriter, r *http.Request) {
	var req AIRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.generator.Generate(r.Context(), learning.GenerationRequest{
		Action:     learning.Action(req.Action),
		Topic:      req.Topic,
		StepID:     req.StepID,
		Difficulty: req.Difficulty,
		Sampling:   req.Options.override(),
	})
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	resp, err := aiResponse(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode content")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Generate handles POST /api/v1/generate and returns the path as structured JSON.
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.generator.Generate(r.Context(), learning.GenerationRequest{
		Action:   learning.ActionGeneratePath,
		Topic:    req.Topic,
		Sampling: req.Options.override(),
	})
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Topic:    res.Path.Path.Topic,
		Steps:    res.Path.Path.Steps,
		Degraded: res.Path.Degraded(),
	})
}

func aiResponse(res *learning.Result) (AIResponse, error) {
	switch {
	case res.Path != nil:
		raw, err := json.Marshal(res.Path.Path)
		if err != nil {
			return AIResponse{}, err
		}
		return AIResponse{Content: string(raw), Degraded: res.Path.Degraded()}, nil
	case res.StepContent != nil:
		return AIResponse{Content: res.StepContent.Content}, nil
	default:
		return AIResponse{Content: res.Exercises}, nil
	}
}
