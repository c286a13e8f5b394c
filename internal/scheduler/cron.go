package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Cron runs a job immediately and then once per interval. At most one loop
// is active at a time.
type Cron struct {
	base  context.Context
	job   func(ctx context.Context)
	clock clockwork.Clock

	mu       sync.Mutex
	cancel   context.CancelFunc
	interval time.Duration
}

// NewCron creates a stopped cron. Jobs run on base, so stopping the cron
// does not interrupt a job already in progress.
func NewCron(base context.Context, job func(ctx context.Context), clock clockwork.Clock) *Cron {
	return &Cron{
		base:  base,
		job:   job,
		clock: clock,
	}
}

// Start begins the loop. It returns false, changing nothing, if the loop is
// already running.
func (c *Cron) Start(interval time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		log.Debug().Msg("sync cron already running")
		return false
	}

	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.interval = interval

	ticker := c.clock.NewTicker(interval)
	go c.loop(ctx, ticker)

	log.Info().Dur("interval", interval).Msg("sync cron started")
	return true
}

func (c *Cron) loop(ctx context.Context, ticker clockwork.Ticker) {
	defer ticker.Stop()

	c.job(c.base)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				return
			}
			c.job(c.base)
		}
	}
}

// Stop ends the loop. A job in progress runs to completion.
func (c *Cron) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	log.Info().Msg("sync cron stopped")
}

// Running reports whether the loop is active
func (c *Cron) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Interval returns the interval of the active loop, or zero
func (c *Cron) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return 0
	}
	return c.interval
}
