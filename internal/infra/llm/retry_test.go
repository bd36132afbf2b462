package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skillsteps/skillsteps/pkg/apperr"
)

// scriptedProvider returns errs[i] on call i, then succeeds.
type scriptedProvider struct {
	errs  []error
	calls int
}

func (s *scriptedProvider) ChatCompletion(_ context.Context, _ ChatRequest) (*ChatResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) {
		return nil, s.errs[i]
	}
	return &ChatResponse{Content: "ok"}, nil
}
func (s *scriptedProvider) ModelInfo() ModelMeta                { return ModelMeta{Provider: "scripted"} }
func (s *scriptedProvider) HealthCheck(_ context.Context) error { return nil }

func fastRetry(next LLMProvider, max int) *RetryProvider {
	return NewRetryProvider(next, max, WithRetryIntervals(time.Millisecond, 2*time.Millisecond))
}

func TestRetryProvider_RetriesTransportErrors(t *testing.T) {
	t.Parallel()

	inner := &scriptedProvider{errs: []error{
		apperr.Transport(errors.New("connection reset")),
		apperr.Transport(errors.New("timeout")),
	}}
	resp, err := fastRetry(inner, 2).ChatCompletion(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d; want 3", inner.calls)
	}
}

func TestRetryProvider_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	transport := apperr.Transport(errors.New("connection refused"))
	inner := &scriptedProvider{errs: []error{transport, transport, transport, transport}}
	_, err := fastRetry(inner, 2).ChatCompletion(context.Background(), ChatRequest{})
	if !errors.Is(err, apperr.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d; want 3 (1 + 2 retries)", inner.calls)
	}
}

func TestRetryProvider_NeverRetriesUpstreamErrors(t *testing.T) {
	t.Parallel()

	for _, status := range []int{400, 429, 500} {
		inner := &scriptedProvider{errs: []error{apperr.Upstream(status, "", "failed")}}
		_, err := fastRetry(inner, 3).ChatCompletion(context.Background(), ChatRequest{})

		var e *apperr.Error
		if !errors.As(err, &e) || e.Kind != apperr.KindUpstream || e.Status != status {
			t.Fatalf("status %d: expected upstream error, got %v", status, err)
		}
		if inner.calls != 1 {
			t.Errorf("status %d: calls = %d; want 1", status, inner.calls)
		}
	}
}

func TestRetryProvider_ZeroRetries_PassThrough(t *testing.T) {
	t.Parallel()

	inner := &scriptedProvider{errs: []error{apperr.Transport(errors.New("reset"))}}
	_, err := fastRetry(inner, 0).ChatCompletion(context.Background(), ChatRequest{})
	if !errors.Is(err, apperr.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d; want 1", inner.calls)
	}
}
