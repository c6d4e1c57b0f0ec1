package aleph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/logger"
)

// Ensure LimitedConcurrencyClient implements the interface.
var _ driven.ModelClient = (*LimitedConcurrencyClient)(nil)

// Limits applied when LimitedConfig leaves them unset.
const (
	DefaultMaxConcurrency = domain.DefaultMaxConcurrency
	DefaultMaxRetryTime   = 3 * time.Minute
)

// LimitedConfig configures a LimitedConcurrencyClient.
type LimitedConfig struct {
	// MaxConcurrency caps in-flight requests (default: 20).
	MaxConcurrency int

	// RequestsPerSecond throttles requests. Zero disables throttling.
	RequestsPerSecond float64

	// MaxRetryTime bounds how long busy responses are retried (default: 3m).
	MaxRetryTime time.Duration

	// InitialInterval is the first backoff delay. Zero uses the library default.
	InitialInterval time.Duration
}

// LimitedConcurrencyClient wraps a model client with a concurrency cap,
// an optional request rate and retries on busy responses.
type LimitedConcurrencyClient struct {
	client       driven.ModelClient
	sem          *semaphore.Weighted
	limiter      *rate.Limiter
	maxRetryTime time.Duration
	initial      time.Duration
}

// NewLimitedConcurrencyClient wraps client.
func NewLimitedConcurrencyClient(client driven.ModelClient, cfg LimitedConfig) *LimitedConcurrencyClient {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.MaxRetryTime <= 0 {
		cfg.MaxRetryTime = DefaultMaxRetryTime
	}

	l := &LimitedConcurrencyClient{
		client:       client,
		sem:          semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		maxRetryTime: cfg.MaxRetryTime,
		initial:      cfg.InitialInterval,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return l
}

// FromEnv builds a limited client from CLIENT_URL and AA_TOKEN, loading
// a .env file first when present.
func FromEnv(cfg LimitedConfig) (*LimitedConcurrencyClient, error) {
	env, err := file.LoadEnv()
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = env.RequestsPerSec
	}
	client, err := NewClient(Config{Token: env.ModelToken, BaseURL: env.ModelURL})
	if err != nil {
		return nil, err
	}
	return NewLimitedConcurrencyClient(client, cfg), nil
}

// Complete generates a completion.
func (l *LimitedConcurrencyClient) Complete(
	ctx context.Context, model string, input domain.CompleteInput,
) (domain.CompleteOutput, error) {
	return limit(ctx, l, "complete", func() (domain.CompleteOutput, error) {
		return l.client.Complete(ctx, model, input)
	})
}

// Explain attributes the target to parts of the prompt.
func (l *LimitedConcurrencyClient) Explain(
	ctx context.Context, model string, input domain.ExplainInput,
) (domain.ExplainOutput, error) {
	return limit(ctx, l, "explain", func() (domain.ExplainOutput, error) {
		return l.client.Explain(ctx, model, input)
	})
}

// Models lists the available models.
func (l *LimitedConcurrencyClient) Models(ctx context.Context) ([]domain.ModelInfo, error) {
	return limit(ctx, l, "models", func() ([]domain.ModelInfo, error) {
		return l.client.Models(ctx)
	})
}

// Tokenize encodes text with the model's tokenizer.
func (l *LimitedConcurrencyClient) Tokenize(ctx context.Context, model, text string) (domain.Encoding, error) {
	return limit(ctx, l, "tokenize", func() (domain.Encoding, error) {
		return l.client.Tokenize(ctx, model, text)
	})
}

// limit holds a semaphore slot for the whole call, retries included.
func limit[T any](ctx context.Context, l *LimitedConcurrencyClient, op string, call func() (T, error)) (T, error) {
	var zero T
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	defer l.sem.Release(1)

	exp := backoff.NewExponentialBackOff()
	if l.initial > 0 {
		exp.InitialInterval = l.initial
	}

	return backoff.Retry(ctx, func() (T, error) {
		if l.limiter != nil {
			if err := l.limiter.Wait(ctx); err != nil {
				return zero, backoff.Permanent(err)
			}
		}
		result, err := call()
		if err == nil {
			return result, nil
		}
		if isBusy(err) {
			logger.Debug("%s: model api busy, retrying: %v", op, err)
			return zero, err
		}
		return zero, backoff.Permanent(err)
	},
		backoff.WithBackOff(exp),
		backoff.WithMaxElapsedTime(l.maxRetryTime),
	)
}

func isBusy(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Busy()
	}
	return errors.Is(err, domain.ErrBusy) || errors.Is(err, domain.ErrRateLimited)
}
