package learning

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/skillsteps/skillsteps/internal/infra/llm"
	"github.com/skillsteps/skillsteps/pkg/apperr"
)

// fakeProvider answers with a fixed completion and counts calls.
type fakeProvider struct {
	content string
	err     error
	calls   atomic.Int32
	mu      sync.Mutex
	last    llm.ChatRequest
}

func (f *fakeProvider) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.content}, nil
}

func (f *fakeProvider) ModelInfo() llm.ModelMeta { return llm.ModelMeta{Provider: "fake"} }

func (f *fakeProvider) HealthCheck(_ context.Context) error { return nil }

func openRouterSettings(baseURL string) llm.Settings {
	return llm.Settings{
		Provider: llm.ProviderOpenRouter,
		APIKey:   "sk-test",
		BaseURL:  baseURL,
		Sampling: llm.Sampling{Model: "mistralai/mistral-7b-instruct", MaxTokens: 1000, Temperature: 0.7, TopP: 0.9, FrequencyPenalty: 0.5, PresencePenalty: 0.5},
	}
}

func allActions() []GenerationRequest {
	return []GenerationRequest{
		{Action: ActionGeneratePath, Topic: "Go"},
		{Action: ActionGenerateStep, Topic: "Go", StepID: 1},
		{Action: ActionPracticeExercises, Topic: "Go", Difficulty: "Beginner"},
	}
}

func TestGenerator_MissingAPIKey_FailsWithoutNetworkCall(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := openRouterSettings(srv.URL)
	s.APIKey = ""
	g := NewGenerator(s, llm.NewOpenRouterProvider(s, nil))

	for _, req := range allActions() {
		_, err := g.Generate(context.Background(), req)
		if !errors.Is(err, apperr.ErrConfiguration) {
			t.Errorf("%s: error = %v; want configuration error", req.Action, err)
		}
	}
	if hits.Load() != 0 {
		t.Errorf("endpoint was called %d times; want 0", hits.Load())
	}
}

func TestGenerator_Upstream500_AllActionsSurfaceUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Intro: Basics", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := openRouterSettings(srv.URL)
	g := NewGenerator(s, llm.NewOpenRouterProvider(s, nil))

	for _, req := range allActions() {
		res, err := g.Generate(context.Background(), req)
		if res != nil {
			t.Errorf("%s: got result %+v; want none (no local fallback on HTTP errors)", req.Action, res)
		}
		var e *apperr.Error
		if !errors.As(err, &e) || e.Kind != apperr.KindUpstream || e.Status != http.StatusInternalServerError {
			t.Fatalf("%s: error = %v; want upstream 500", req.Action, err)
		}
		if e.Action != string(req.Action) {
			t.Errorf("%s: Action = %q; want it attached", req.Action, e.Action)
		}
	}
}

func TestGenerator_InvalidArgument_NoProviderCall(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{content: "x"}
	g := NewGenerator(openRouterSettings("http://unused"), p)

	_, err := g.GenerateStepContent(context.Background(), "Go", 0)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("error = %v; want invalid argument", err)
	}
	if _, err := g.GenerateLearningPath(context.Background(), "   "); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("blank topic error = %v; want invalid argument", err)
	}
	if p.calls.Load() != 0 {
		t.Errorf("provider called %d times; want 0", p.calls.Load())
	}
}

func TestGenerator_GenerateLearningPath_StrictAndFallback(t *testing.T) {
	t.Parallel()

	strict := NewGenerator(openRouterSettings("http://unused"), &fakeProvider{content: `{"steps":[{"title":"Intro","description":"Basics"}]}`})
	res, err := strict.GenerateLearningPath(context.Background(), "  Go ")
	if err != nil {
		t.Fatalf("GenerateLearningPath error = %v", err)
	}
	if res.Mode != ParseStrict || res.Path.Topic != "Go" || len(res.Path.Steps) != 1 {
		t.Errorf("unexpected strict result %+v", res)
	}

	degraded := NewGenerator(openRouterSettings("http://unused"), &fakeProvider{content: "Intro: Basics\nAdvanced: Deep dive"})
	res, err = degraded.GenerateLearningPath(context.Background(), "Go")
	if err != nil {
		t.Fatalf("GenerateLearningPath error = %v", err)
	}
	if !res.Degraded() || len(res.Path.Steps) != 2 {
		t.Errorf("unexpected fallback result %+v", res)
	}
}

func TestGenerator_StepContentAndExercises_Verbatim(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{content: "Lesson text"}
	g := NewGenerator(openRouterSettings("http://unused"), p)

	content, err := g.GenerateStepContent(context.Background(), "Python", 2)
	if err != nil {
		t.Fatalf("GenerateStepContent error = %v", err)
	}
	if content.Content != "Lesson text" {
		t.Errorf("Content = %q", content.Content)
	}
	if !strings.Contains(p.last.Messages[1].Content, "step 2 of learning Python") {
		t.Errorf("unexpected prompt %q", p.last.Messages[1].Content)
	}

	ex, err := g.GetPracticeExercises(context.Background(), "Python", "advanced")
	if err != nil {
		t.Fatalf("GetPracticeExercises error = %v", err)
	}
	if ex != "Lesson text" {
		t.Errorf("Exercises = %q", ex)
	}
}

func TestGenerator_SamplingOverride_PerField(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{content: "ok"}
	s := openRouterSettings("http://unused")
	g := NewGenerator(s, p)

	temp := float32(0)
	_, err := g.Generate(context.Background(), GenerationRequest{
		Action: ActionGenerateStep, Topic: "Go", StepID: 1,
		Sampling: &llm.SamplingOverride{Temperature: &temp},
	})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	want := s.Sampling
	want.Temperature = 0
	if p.last.Sampling != want {
		t.Errorf("Sampling = %+v; want %+v", p.last.Sampling, want)
	}
}

func TestGenerator_TransportError_KeepsKind(t *testing.T) {
	t.Parallel()

	g := NewGenerator(openRouterSettings("http://unused"), &fakeProvider{err: apperr.Transport(errors.New("reset"))})
	_, err := g.GetPracticeExercises(context.Background(), "Go", "Beginner")
	if apperr.KindOf(err) != apperr.KindTransport {
		t.Errorf("KindOf = %q; want transport", apperr.KindOf(err))
	}
	if !strings.HasPrefix(err.Error(), string(ActionPracticeExercises)+": transport error") {
		t.Errorf("error = %q; want action prefix", err.Error())
	}
}

func TestGenerator_MockProvider_EndToEnd(t *testing.T) {
	t.Parallel()

	g := NewGenerator(llm.Settings{Provider: llm.ProviderMock}, llm.NewMockProvider())
	res, err := g.GenerateLearningPath(context.Background(), "Kubernetes")
	if err != nil {
		t.Fatalf("GenerateLearningPath error = %v", err)
	}
	if res.Mode != ParseStrict || len(res.Path.Steps) != 2 {
		t.Errorf("unexpected mock path %+v", res)
	}
}

func TestGenerator_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	g := NewGenerator(openRouterSettings("http://unused"), &fakeProvider{content: "not json"}, WithMeter(mp.Meter("test")))

	if _, err := g.GenerateLearningPath(context.Background(), "Go"); err != nil {
		t.Fatalf("GenerateLearningPath error = %v", err)
	}
	if _, err := g.GenerateStepContent(context.Background(), "Go", 0); err == nil {
		t.Fatal("expected invalid argument")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect error = %v", err)
	}
	outcomes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "skillsteps.generation.requests" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value("outcome")
				outcomes[v.AsString()] += dp.Value
			}
		}
	}
	if outcomes["degraded"] != 1 || outcomes["invalid_argument"] != 1 {
		t.Errorf("outcomes = %v; want one degraded and one invalid_argument", outcomes)
	}
}

func TestGenerator_ConcurrentCalls(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{content: `{"steps":[{"title":"A"}]}`}
	g := NewGenerator(openRouterSettings("http://unused"), p)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.GenerateLearningPath(context.Background(), "Go"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent call failed: %v", err)
	}
	if p.calls.Load() != 16 {
		t.Errorf("calls = %d; want 16", p.calls.Load())
	}
}

func TestGenerator_FenceOnlyCompletionIsUpstreamError(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"```", "```json\n```", "  ```\n\n```  "} {
		g := NewGenerator(openRouterSettings("http://unused"), &fakeProvider{content: content})
		for _, req := range allActions() {
			res, err := g.Generate(context.Background(), req)
			if res != nil || !errors.Is(err, apperr.ErrUpstream) {
				t.Errorf("%s with %q: got %+v, %v; want upstream error", req.Action, content, res, err)
			}
		}
	}
}
