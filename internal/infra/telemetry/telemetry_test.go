package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skillsteps/skillsteps/internal/infra/config"
)

// Setup replaces the otel globals, so these tests do not run in parallel.

func TestSetup_MetricsHandlerServesRecordedCounters(t *testing.T) {
	tel, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "skillsteps-test"}, "test", nil)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) }) //nolint:errcheck

	counter, err := tel.MeterProvider.Meter("test").Int64Counter("skillsteps.test.calls")
	if err != nil {
		t.Fatalf("Int64Counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	tel.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body) //nolint:errcheck
	text := string(body)
	if !strings.Contains(text, "skillsteps_test_calls") {
		t.Errorf("expected counter in exposition, got:\n%s", text)
	}
	if !strings.Contains(text, "go_goroutines") {
		t.Error("expected go runtime collector output")
	}
}

func TestSetup_TwiceDoesNotCollide(t *testing.T) {
	for i := 0; i < 2; i++ {
		tel, err := Setup(context.Background(), config.TelemetryConfig{}, "test", nil)
		if err != nil {
			t.Fatalf("Setup() #%d error = %v", i, err)
		}
		if err := tel.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() #%d error = %v", i, err)
		}
	}
}

func TestSetup_OTLPEndpointIsLazy(t *testing.T) {
	cfg := config.TelemetryConfig{OTLPEndpoint: "127.0.0.1:4317", OTLPInsecure: true}
	tel, err := Setup(context.Background(), cfg, "test", nil)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = tel.Shutdown(ctx) //nolint:errcheck // no collector is listening
}
