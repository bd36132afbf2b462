package learning

import (
	"fmt"
	"strings"

	"github.com/skillsteps/skillsteps/pkg/apperr"
)

// BuildPrompt validates req and renders the prompt for its action.
// Deterministic: identical requests yield byte-identical prompts.
func BuildPrompt(req GenerationRequest) (string, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return "", apperr.InvalidArgument("topic is required")
	}

	switch req.Action {
	case ActionGeneratePath:
		return PathPrompt(topic), nil
	case ActionGenerateStep:
		if req.StepID <= 0 {
			return "", apperr.InvalidArgument("stepId must be a positive integer, got %d", req.StepID)
		}
		return StepContentPrompt(req.StepID, topic), nil
	case ActionPracticeExercises:
		d, ok := ParseDifficulty(req.Difficulty)
		if !ok {
			return "", apperr.InvalidArgument("difficulty must be one of Beginner, Intermediate, Advanced, got %q", req.Difficulty)
		}
		return PracticeExercisesPrompt(topic, d), nil
	default:
		return "", apperr.InvalidArgument("unknown action %q", req.Action)
	}
}

// PathPrompt asks for the whole path as a JSON object.
func PathPrompt(topic string) string {
	return fmt.Sprintf(`Create a structured learning path for %q.
Return only a JSON object with a "steps" array of 5 to 7 entries, ordered from first to last.
Each entry must have:
- "id": its position in the array, starting at one
- "title": a short name for the step
- "description": what the learner will cover
- "difficulty": exactly one of "Beginner", "Intermediate", "Advanced"
- "estimatedTime": a duration such as "45 minutes" or "three hours"
Do not add any text outside the JSON object.`, topic)
}

// StepContentPrompt asks for free-text material for one step. The step id
// and topic each appear once.
func StepContentPrompt(stepID int, topic string) string {
	return fmt.Sprintf(`Generate detailed content for step %d of learning %s. Include:
- Clear explanations of concepts
- Examples and use cases
- Practice exercises
- Common pitfalls to avoid
- Additional resources
Make the content engaging and easy to understand.`, stepID, topic)
}

// PracticeExercisesPrompt asks for exercises at the given level.
func PracticeExercisesPrompt(topic string, difficulty Difficulty) string {
	return fmt.Sprintf(`Create practice exercises for %s at %s level. Include:
- Multiple exercises with varying complexity
- Step-by-step solutions
- Hints and tips
- Expected outcomes
- Additional challenges for practice`, topic, difficulty)
}
