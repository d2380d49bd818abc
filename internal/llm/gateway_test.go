package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterresume/internal/config"
)

// stubProvider scripts Chat responses for gateway tests
type stubProvider struct {
	mu        sync.Mutex
	calls     int32
	failures  int
	err       error
	transient bool
	delay     time.Duration

	inFlight    int32
	maxInFlight int32
	callTimes   []time.Time
}

func (p *stubProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	current := atomic.AddInt32(&p.inFlight, 1)
	defer atomic.AddInt32(&p.inFlight, -1)
	for {
		max := atomic.LoadInt32(&p.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt32(&p.maxInFlight, max, current) {
			break
		}
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := atomic.AddInt32(&p.calls, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callTimes = append(p.callTimes, time.Now())
	if int(call) <= p.failures {
		return nil, p.err
	}
	return &ChatResponse{Text: "ok"}, nil
}

func (p *stubProvider) IsHealthy(ctx context.Context) error { return nil }
func (p *stubProvider) GetProviderName() string             { return "stub" }
func (p *stubProvider) IsTransient(err error) bool          { return p.transient }

var (
	_ Provider            = (*stubProvider)(nil)
	_ TransientClassifier = (*stubProvider)(nil)
)

func gatewayConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Gateway.MaxConcurrent = 2
	cfg.Gateway.RateLimit = 0 // unlimited in tests
	cfg.Gateway.MaxRetries = 3
	cfg.Gateway.InitialBackoff = time.Millisecond
	cfg.Gateway.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func TestInvokeSuccess(t *testing.T) {
	provider := &stubProvider{}
	gw := NewGateway(gatewayConfig(), provider)

	resp, err := gw.Invoke(context.Background(), &ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestInvokeRetriesTransientFailures(t *testing.T) {
	provider := &stubProvider{
		failures:  2,
		err:       errors.New("rate limited"),
		transient: true,
	}
	gw := NewGateway(gatewayConfig(), provider)

	resp, err := gw.Invoke(context.Background(), &ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&provider.calls))
}

func TestInvokeExhaustedRetriesReturnsModelUnavailable(t *testing.T) {
	cause := errors.New("still down")
	provider := &stubProvider{
		failures:  10,
		err:       cause,
		transient: true,
	}
	gw := NewGateway(gatewayConfig(), provider)

	_, err := gw.Invoke(context.Background(), &ChatRequest{})
	require.Error(t, err)

	var unavailable *ModelUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 3, unavailable.Attempts)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, int32(3), atomic.LoadInt32(&provider.calls))
}

func TestInvokeNonTransientFailsFast(t *testing.T) {
	cause := errors.New("invalid api key")
	provider := &stubProvider{
		failures:  10,
		err:       cause,
		transient: false,
	}
	gw := NewGateway(gatewayConfig(), provider)

	_, err := gw.Invoke(context.Background(), &ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, cause, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestInvokeContextCancellation(t *testing.T) {
	provider := &stubProvider{delay: time.Second}
	gw := NewGateway(gatewayConfig(), provider)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := gw.Invoke(ctx, &ChatRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvokeConcurrencyBound(t *testing.T) {
	provider := &stubProvider{delay: 20 * time.Millisecond}
	cfg := gatewayConfig()
	cfg.Gateway.MaxConcurrent = 2
	gw := NewGateway(cfg, provider)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.Invoke(context.Background(), &ChatRequest{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&provider.maxInFlight), int32(2))
}

func TestInvokeRateLimitSpacing(t *testing.T) {
	provider := &stubProvider{}
	cfg := gatewayConfig()
	// 1200 requests per minute comes out to one call every 50ms
	cfg.Gateway.RateLimit = 1200
	gw := NewGateway(cfg, provider)

	for i := 0; i < 4; i++ {
		_, err := gw.Invoke(context.Background(), &ChatRequest{})
		require.NoError(t, err)
	}

	provider.mu.Lock()
	times := append([]time.Time(nil), provider.callTimes...)
	provider.mu.Unlock()

	require.Len(t, times, 4)
	// The first call passes immediately on the limiter's burst token; every
	// later call must be spaced out. Allow slack for timer granularity.
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, gap, 40*time.Millisecond, "calls %d and %d were %v apart", i-1, i, gap)
	}
}

func TestModelUnavailableErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := &ModelUnavailableError{Attempts: 5, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "5")
}
