// Package mcptools exposes the generation actions as MCP tools so an MCP
// client (an editor or agent host) can call them over stdio.
package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skillsteps/skillsteps/internal/domain/learning"
)

// Tool names.
const (
	ToolGeneratePath      = "generate_learning_path"
	ToolGenerateStep      = "generate_step_content"
	ToolPracticeExercises = "get_practice_exercises"
)

// Generator is the facade surface the tools delegate to.
type Generator interface {
	Generate(ctx context.Context, req learning.GenerationRequest) (*learning.Result, error)
}

type PathInput struct {
	Topic string `json:"topic" jsonschema:"subject to build a learning path for"`
}

type PathOutput struct {
	Topic    string                  `json:"topic"`
	Steps    []learning.LearningStep `json:"steps"`
	Degraded bool                    `json:"degraded" jsonschema:"true when the model output was not valid JSON and steps were recovered line by line"`
}

type StepInput struct {
	Topic  string `json:"topic" jsonschema:"subject of the learning path"`
	StepID int    `json:"stepId" jsonschema:"1-based step number"`
}

type ExercisesInput struct {
	Topic      string `json:"topic" jsonschema:"subject to practice"`
	Difficulty string `json:"difficulty" jsonschema:"Beginner, Intermediate or Advanced"`
}

type ExercisesOutput struct {
	Exercises string `json:"exercises"`
}

// NewServer returns an MCP server with the three generation tools registered.
// Facade errors are returned as tool errors, not protocol errors.
func NewServer(gen Generator, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "skillsteps", Version: version}, nil)
	t := tools{gen: gen}

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGeneratePath,
		Description: "Generate a structured 5 to 7 step learning path for a topic.",
	}, t.generatePath)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGenerateStep,
		Description: "Generate detailed study material for one step of a learning path.",
	}, t.generateStep)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolPracticeExercises,
		Description: "Generate practice exercises with solutions and hints for a topic at a difficulty level.",
	}, t.practiceExercises)

	return server
}

// ServeStdio runs the MCP server on stdin/stdout until ctx is cancelled or
// the client disconnects.
func ServeStdio(ctx context.Context, gen Generator, version string) error {
	return NewServer(gen, version).Run(ctx, &mcp.StdioTransport{})
}

type tools struct {
	gen Generator
}

func (t tools) generatePath(ctx context.Context, _ *mcp.CallToolRequest, in PathInput) (*mcp.CallToolResult, PathOutput, error) {
	res, err := t.gen.Generate(ctx, learning.GenerationRequest{Action: learning.ActionGeneratePath, Topic: in.Topic})
	if err != nil {
		return nil, PathOutput{}, err
	}
	return nil, PathOutput{
		Topic:    res.Path.Path.Topic,
		Steps:    res.Path.Path.Steps,
		Degraded: res.Path.Degraded(),
	}, nil
}

func (t tools) generateStep(ctx context.Context, _ *mcp.CallToolRequest, in StepInput) (*mcp.CallToolResult, learning.StepContent, error) {
	res, err := t.gen.Generate(ctx, learning.GenerationRequest{
		Action: learning.ActionGenerateStep,
		Topic:  in.Topic,
		StepID: in.StepID,
	})
	if err != nil {
		return nil, learning.StepContent{}, err
	}
	return nil, *res.StepContent, nil
}

func (t tools) practiceExercises(ctx context.Context, _ *mcp.CallToolRequest, in ExercisesInput) (*mcp.CallToolResult, ExercisesOutput, error) {
	res, err := t.gen.Generate(ctx, learning.GenerationRequest{
		Action:     learning.ActionPracticeExercises,
		Topic:      in.Topic,
		Difficulty: in.Difficulty,
	})
	if err != nil {
		return nil, ExercisesOutput{}, err
	}
	return nil, ExercisesOutput{Exercises: res.Exercises}, nil
}
