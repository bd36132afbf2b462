package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/skillsteps/skillsteps/pkg/apperr"
)

// RetryProvider wraps an LLMProvider with bounded exponential backoff.
// Only transport failures are retried; upstream answers (any status) and
// configuration errors are returned on the first attempt.
type RetryProvider struct {
	next        LLMProvider
	maxRetries  int
	initial     time.Duration
	maxInterval time.Duration
	log         *zap.SugaredLogger
}

// RetryOption customizes a RetryProvider.
type RetryOption func(*RetryProvider)

// WithRetryIntervals sets the first and the maximum wait between attempts.
func WithRetryIntervals(initial, maxInterval time.Duration) RetryOption {
	return func(p *RetryProvider) {
		p.initial = initial
		p.maxInterval = maxInterval
	}
}

// WithRetryLogger logs each scheduled retry.
func WithRetryLogger(log *zap.SugaredLogger) RetryOption {
	return func(p *RetryProvider) { p.log = log }
}

// NewRetryProvider wraps next; maxRetries <= 0 disables retries.
func NewRetryProvider(next LLMProvider, maxRetries int, opts ...RetryOption) *RetryProvider {
	p := &RetryProvider{
		next:        next,
		maxRetries:  maxRetries,
		initial:     500 * time.Millisecond,
		maxInterval: 5 * time.Second,
		log:         zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ChatCompletion calls the wrapped provider, retrying transport errors.
func (p *RetryProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.maxRetries <= 0 {
		return p.next.ChatCompletion(ctx, req)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initial
	b.MaxInterval = p.maxInterval

	return backoff.Retry(ctx, func() (*ChatResponse, error) {
		resp, err := p.next.ChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		if apperr.KindOf(err) != apperr.KindTransport {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.maxRetries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			p.log.Warnw("completion retry scheduled",
				"provider", p.next.ModelInfo().Provider,
				"wait", wait.String(),
				"error", err.Error(),
			)
		}),
	)
}

// ModelInfo delegates to the wrapped provider.
func (p *RetryProvider) ModelInfo() ModelMeta { return p.next.ModelInfo() }

// HealthCheck delegates to the wrapped provider without retries.
func (p *RetryProvider) HealthCheck(ctx context.Context) error { return p.next.HealthCheck(ctx) }
