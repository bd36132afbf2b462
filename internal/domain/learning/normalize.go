package learning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Text is a step field decoded leniently: a JSON string is kept, a number
// becomes its literal text, anything else decodes as empty and later takes
// the field default.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	*t = ""
	return nil
}

// PartialStep is a step as the model returned it: every field optional and
// loosely typed. ID is kept raw so a string or missing id never fails the parse.
type PartialStep struct {
	ID            json.RawMessage `json:"id,omitempty"`
	Title         *Text           `json:"title,omitempty"`
	Description   *Text           `json:"description,omitempty"`
	Difficulty    *Text           `json:"difficulty,omitempty"`
	EstimatedTime *Text           `json:"estimatedTime,omitempty"`
}

type partialPath struct {
	Steps *[]json.RawMessage `json:"steps"`
}

// decodeStep decodes one element of a steps array. An element that is not
// an object yields an empty step, so it is defaulted rather than dropped.
func decodeStep(raw json.RawMessage) PartialStep {
	var p PartialStep
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return p
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return PartialStep{}
	}
	return p
}

// NormalizeStep fills every missing or blank field of p with its default.
// The id is always the 1-based position so a path's ids are exactly 1..N.
// Unknown difficulty values become Beginner.
func NormalizeStep(p PartialStep, position int) LearningStep {
	step := LearningStep{
		ID:            position,
		Title:         orDefault(p.Title, DefaultTitle),
		Description:   orDefault(p.Description, DefaultDescription),
		Difficulty:    DefaultDifficulty,
		EstimatedTime: orDefault(p.EstimatedTime, DefaultEstimatedTime),
	}
	if p.Difficulty != nil {
		if d, ok := ParseDifficulty(string(*p.Difficulty)); ok {
			step.Difficulty = d
		}
	}
	return step
}

// NormalizePath parses raw model output for a path. A JSON object with a
// steps array is a strict parse; anything else goes through the line
// fallback. It never fails.
func NormalizePath(topic, raw string) PathResult {
	text := stripCodeFence(raw)

	var parsed partialPath
	if err := json.Unmarshal([]byte(text), &parsed); err == nil && parsed.Steps != nil {
		steps := make([]LearningStep, 0, len(*parsed.Steps))
		for i, raw := range *parsed.Steps {
			steps = append(steps, NormalizeStep(decodeStep(raw), i+1))
		}
		return PathResult{Path: LearningPath{Topic: topic, Steps: steps}, Mode: ParseStrict}
	}

	return PathResult{Path: LearningPath{Topic: topic, Steps: fallbackSteps(text)}, Mode: ParseHeuristicFallback}
}

// NormalizeStepContent wraps raw text as step content. No parsing.
func NormalizeStepContent(raw string) StepContent {
	return StepContent{
		Content:   raw,
		KeyPoints: []string{},
		Resources: []Resource{},
	}
}

// NormalizeExercises returns raw text unchanged.
func NormalizeExercises(raw string) string { return raw }

// fallbackSteps derives one step per non-blank line, split once on the
// first colon into title and description.
func fallbackSteps(text string) []LearningStep {
	steps := []LearningStep{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		n := len(steps) + 1
		before, after, _ := strings.Cut(line, ":")

		title := strings.TrimSpace(before)
		if title == "" {
			title = fmt.Sprintf("Step %d", n)
		}
		desc := strings.TrimSpace(after)
		if desc == "" {
			desc = DefaultDescription
		}
		steps = append(steps, LearningStep{
			ID:            n,
			Title:         title,
			Description:   desc,
			Difficulty:    DefaultDifficulty,
			EstimatedTime: DefaultEstimatedTime,
		})
	}
	return steps
}

// stripCodeFence removes one surrounding markdown fence, e.g. ```json ... ```.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func orDefault(v *Text, def string) string {
	if v == nil {
		return def
	}
	if t := strings.TrimSpace(string(*v)); t != "" {
		return t
	}
	return def
}
