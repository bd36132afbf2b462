package learning

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/skillsteps/skillsteps/internal/infra/llm"
	"github.com/skillsteps/skillsteps/internal/infra/logger"
	"github.com/skillsteps/skillsteps/pkg/apperr"
)

const instrumentationName = "github.com/skillsteps/skillsteps/internal/domain/learning"

// Generator is the single entry point for the three generation actions.
// It holds only read-only settings and a provider, so one instance serves
// concurrent callers.
type Generator struct {
	settings llm.Settings
	provider llm.LLMProvider
	log      *logger.Logger
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// Option customizes a Generator.
type Option func(*generatorOptions)

type generatorOptions struct {
	log    *logger.Logger
	meter  metric.Meter
	tracer trace.Tracer
}

// WithLogger logs one line per generation call.
func WithLogger(l *logger.Logger) Option {
	return func(o *generatorOptions) { o.log = l }
}

// WithMeter records request counts and durations on m.
func WithMeter(m metric.Meter) Option {
	return func(o *generatorOptions) { o.meter = m }
}

// WithTracer opens a span per generation call on t.
func WithTracer(t trace.Tracer) Option {
	return func(o *generatorOptions) { o.tracer = t }
}

// NewGenerator builds a Generator. Without options it uses a no-op logger
// and the global otel providers.
func NewGenerator(settings llm.Settings, provider llm.LLMProvider, opts ...Option) *Generator {
	o := generatorOptions{
		log:    logger.Nop(),
		meter:  otel.Meter(instrumentationName),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(&o)
	}

	requests, err := o.meter.Int64Counter("skillsteps.generation.requests",
		metric.WithDescription("Generation calls by action and outcome"))
	if err != nil {
		requests, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("skillsteps.generation.requests") //nolint:errcheck
	}
	duration, err := o.meter.Float64Histogram("skillsteps.generation.duration",
		metric.WithDescription("Generation call latency"),
		metric.WithUnit("s"))
	if err != nil {
		duration, _ = noop.NewMeterProvider().Meter(instrumentationName).Float64Histogram("skillsteps.generation.duration") //nolint:errcheck
	}

	return &Generator{
		settings: settings,
		provider: provider,
		log:      o.log,
		tracer:   o.tracer,
		requests: requests,
		duration: duration,
	}
}

// Generate runs one request: settings check, prompt, completion, normalize.
// Errors keep their kind and gain the action name.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (res *Result, err error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "learning.Generate",
		trace.WithAttributes(attribute.String("action", string(req.Action))))
	defer func() {
		g.observe(ctx, span, req.Action, res, err, time.Since(start))
		span.End()
	}()

	if err := g.settings.Validate(); err != nil {
		return nil, apperr.WithAction(err, string(req.Action))
	}
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, apperr.WithAction(err, string(req.Action))
	}
	raw, err := llm.Complete(ctx, g.provider, prompt, g.settings.Sampling.Merge(req.Sampling))
	if err != nil {
		return nil, apperr.WithAction(err, string(req.Action))
	}
	if stripCodeFence(raw) == "" {
		return nil, apperr.WithAction(apperr.Upstream(0, "", "no content returned"), string(req.Action))
	}

	res = &Result{Action: req.Action}
	switch req.Action {
	case ActionGeneratePath:
		path := NormalizePath(strings.TrimSpace(req.Topic), raw)
		res.Path = &path
	case ActionGenerateStep:
		content := NormalizeStepContent(raw)
		res.StepContent = &content
	case ActionPracticeExercises:
		res.Exercises = NormalizeExercises(raw)
	}
	return res, nil
}

// GenerateLearningPath builds a structured path for topic.
func (g *Generator) GenerateLearningPath(ctx context.Context, topic string) (*PathResult, error) {
	res, err := g.Generate(ctx, GenerationRequest{Action: ActionGeneratePath, Topic: topic})
	if err != nil {
		return nil, err
	}
	return res.Path, nil
}

// GenerateStepContent returns the material for step stepID of topic.
func (g *Generator) GenerateStepContent(ctx context.Context, topic string, stepID int) (*StepContent, error) {
	res, err := g.Generate(ctx, GenerationRequest{Action: ActionGenerateStep, Topic: topic, StepID: stepID})
	if err != nil {
		return nil, err
	}
	return res.StepContent, nil
}

// GetPracticeExercises returns exercise text for topic at difficulty.
func (g *Generator) GetPracticeExercises(ctx context.Context, topic, difficulty string) (string, error) {
	res, err := g.Generate(ctx, GenerationRequest{Action: ActionPracticeExercises, Topic: topic, Difficulty: difficulty})
	if err != nil {
		return "", err
	}
	return res.Exercises, nil
}

func (g *Generator) observe(ctx context.Context, span trace.Span, action Action, res *Result, err error, elapsed time.Duration) {
	outcome := "ok"
	mode := ""
	if res != nil && res.Path != nil {
		mode = string(res.Path.Mode)
		if res.Path.Degraded() {
			outcome = "degraded"
		}
	}
	if err != nil {
		outcome = string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}

	attrs := metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("outcome", outcome),
	)
	g.requests.Add(ctx, 1, attrs)
	g.duration.Record(ctx, elapsed.Seconds(), attrs)

	kv := []any{"action", action, "outcome", outcome, "duration_ms", elapsed.Milliseconds()}
	if mode != "" {
		kv = append(kv, "mode", mode)
	}
	if err != nil {
		g.log.Warn("generation failed", append(kv, "error", err.Error())...)
		return
	}
	g.log.Info("generation completed", kv...)
}
