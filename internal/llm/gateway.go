package llm

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"betterresume/internal/config"
	"betterresume/internal/logging"
)

// Gateway wraps an LLM provider with concurrency limiting, rate limiting and
// retries. All model traffic goes through Invoke.
type Gateway struct {
	provider       Provider
	sem            *semaphore.Weighted
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewGateway creates a new gateway around the given provider
func NewGateway(cfg *config.Config, provider Provider) *Gateway {
	maxConcurrent := cfg.Gateway.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	// Convert requests per minute to requests per second for the limiter
	rps := rate.Limit(float64(cfg.Gateway.RateLimit) / 60.0)
	if cfg.Gateway.RateLimit <= 0 {
		rps = rate.Inf
	}

	maxRetries := cfg.Gateway.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &Gateway{
		provider:       provider,
		sem:            semaphore.NewWeighted(int64(maxConcurrent)),
		limiter:        rate.NewLimiter(rps, 1),
		maxRetries:     maxRetries,
		initialBackoff: cfg.Gateway.InitialBackoff,
		maxBackoff:     cfg.Gateway.MaxBackoff,
	}
}

// Provider returns the wrapped provider
func (g *Gateway) Provider() Provider {
	return g.provider
}

// Invoke sends a chat request to the provider, honoring the concurrency
// bound, the rate limit and the retry policy. Permanent provider errors are
// returned as-is; transient failures are retried with exponential backoff and
// jitter until the attempts are exhausted, at which point a
// ModelUnavailableError wrapping the last failure is returned.
func (g *Gateway) Invoke(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)

	logger := logging.GetGlobalLogger()

	var lastErr error
	backoff := g.initialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		if attempt > 1 {
			delay := backoff/2 + time.Duration(rand.Int63n(int64(backoff/2)+1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			backoff *= 2
			if g.maxBackoff > 0 && backoff > g.maxBackoff {
				backoff = g.maxBackoff
			}
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := g.provider.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !g.isTransient(err) {
			return nil, err
		}

		logger.Warn("Model call failed, retrying", map[string]interface{}{
			"provider": g.provider.GetProviderName(),
			"attempt":  attempt,
			"error":    err.Error(),
		})
	}

	return nil, &ModelUnavailableError{Attempts: g.maxRetries, Err: lastErr}
}

func (g *Gateway) isTransient(err error) bool {
	if classifier, ok := g.provider.(TransientClassifier); ok {
		return classifier.IsTransient(err)
	}
	return true
}
