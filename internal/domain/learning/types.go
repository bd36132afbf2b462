// Package learning turns a free-text topic into a structured learning path
// and per-step content, and persists paths for their owners.
package learning

import (
	"strings"

	"github.com/skillsteps/skillsteps/internal/infra/llm"
)

// Action names one of the three generation use-cases.
type Action string

const (
	ActionGeneratePath      Action = "generateLearningPath"
	ActionGenerateStep      Action = "generateStepContent"
	ActionPracticeExercises Action = "getPracticeExercises"
)

// Difficulty is the closed set of step difficulty levels.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Difficulties lists the allowed levels in ascending order.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// ParseDifficulty canonicalizes s case-insensitively.
func ParseDifficulty(s string) (Difficulty, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Difficulties {
		if strings.EqualFold(s, string(d)) {
			return d, true
		}
	}
	return "", false
}

// Step field defaults applied by NormalizeStep and the line fallback.
const (
	DefaultTitle         = "Untitled Step"
	DefaultDescription   = "No description available"
	DefaultDifficulty    = DifficultyBeginner
	DefaultEstimatedTime = "30 minutes"
)

// LearningStep is one ordered entry of a LearningPath. ID is its 1-based position.
type LearningStep struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Difficulty    Difficulty `json:"difficulty"`
	EstimatedTime string     `json:"estimatedTime"`
}

// LearningPath is an ordered sequence of steps for a topic.
type LearningPath struct {
	Topic string         `json:"topic"`
	Steps []LearningStep `json:"steps"`
}

// ParseMode tells whether a path came from a faithful parse or a guess.
type ParseMode string

const (
	ParseStrict            ParseMode = "strict"
	ParseHeuristicFallback ParseMode = "heuristic_fallback"
)

// PathResult is a normalized path tagged with how it was obtained.
type PathResult struct {
	Path LearningPath `json:"path"`
	Mode ParseMode    `json:"mode"`
}

// Degraded reports whether the path was derived by the line fallback.
func (r PathResult) Degraded() bool { return r.Mode == ParseHeuristicFallback }

// Resource is a pointer to further reading.
type Resource struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// StepContent is the generated material for one step of a topic.
type StepContent struct {
	Content           string     `json:"content"`
	KeyPoints         []string   `json:"keyPoints"`
	PracticeExercises *string    `json:"practiceExercises,omitempty"`
	Resources         []Resource `json:"resources"`
}

// GenerationRequest is the transient input of one facade call. StepID is
// required by ActionGenerateStep, Difficulty by ActionPracticeExercises.
// Sampling overrides the process-wide defaults field by field.
type GenerationRequest struct {
	Action     Action
	Topic      string
	StepID     int
	Difficulty string
	Sampling   *llm.SamplingOverride
}

// Result carries the action and exactly one populated payload.
type Result struct {
	Action      Action
	Path        *PathResult
	StepContent *StepContent
	Exercises   string
}
