package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultDelay is the pause between two club syncs in a batch
const DefaultDelay = 2 * time.Second

// Pacer spaces out requests to the results site
type Pacer interface {
	Wait(ctx context.Context) error
}

// Throttler is a pacer that can slow down after the site pushes back
type Throttler interface {
	Throttle()
}

// NewPacer picks a token bucket when a rate is configured, the fixed delay otherwise
func NewPacer(cfg *Config, clock clockwork.Clock) Pacer {
	if cfg.RatePerMinute > 0 {
		return NewLimiterPacer(cfg.RatePerMinute, time.Minute)
	}
	return NewDelayPacer(cfg.Delay, clock)
}

// DelayPacer sleeps a fixed delay before every request
type DelayPacer struct {
	delay time.Duration
	clock clockwork.Clock
}

func NewDelayPacer(delay time.Duration, clock clockwork.Clock) *DelayPacer {
	return &DelayPacer{delay: delay, clock: clock}
}

func (p *DelayPacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(p.delay):
		return nil
	}
}

// LimiterPacer allows n requests per interval and halves its rate every time
// it is throttled, down to minLimit.
type LimiterPacer struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	minLimit rate.Limit
}

func NewLimiterPacer(n int, interval time.Duration) *LimiterPacer {
	limit := rate.Limit(float64(n) / interval.Seconds())
	return &LimiterPacer{
		limiter:  rate.NewLimiter(limit, 1),
		minLimit: limit / 8,
	}
}

func (p *LimiterPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func (p *LimiterPacer) Throttle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	limit := p.limiter.Limit() / 2
	if limit < p.minLimit {
		limit = p.minLimit
	}
	p.limiter.SetLimit(limit)
	log.Warn().Float64("requests_per_second", float64(limit)).Msg("results site pushing back, slowing down")
}

// Limit reports the current rate in requests per second
func (p *LimiterPacer) Limit() rate.Limit {
	return p.limiter.Limit()
}
