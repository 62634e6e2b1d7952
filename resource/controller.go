// Package resource throttles snapshot IO against blob stores.
//
// A Controller caps the number of concurrent transfers with a weighted
// semaphore and the transfer throughput with a token-bucket rate limiter.
// A nil *Controller is valid and applies no limits, so callers can thread
// one through unconditionally.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds transfer limits. The zero value means unlimited throughput
// and one transfer at a time.
type Config struct {
	// MaxConcurrentTransfers caps concurrent snapshot uploads/downloads.
	// If 0, defaults to 1.
	MaxConcurrentTransfers int64

	// IOLimitBytesPerSec caps transfer throughput. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller enforces the configured limits.
type Controller struct {
	transfers *semaphore.Weighted
	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a controller for the given limits.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentTransfers <= 0 {
		cfg.MaxConcurrentTransfers = 1
	}

	c := &Controller{
		transfers: semaphore.NewWeighted(cfg.MaxConcurrentTransfers),
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// AcquireTransfer reserves a transfer slot, blocking until one is free or
// ctx is canceled.
func (c *Controller) AcquireTransfer(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.transfers.Acquire(ctx, 1)
}

// TryAcquireTransfer reserves a transfer slot without blocking.
func (c *Controller) TryAcquireTransfer() bool {
	if c == nil {
		return true
	}
	return c.transfers.TryAcquire(1)
}

// ReleaseTransfer releases a slot taken by AcquireTransfer.
func (c *Controller) ReleaseTransfer() {
	if c == nil {
		return
	}
	c.transfers.Release(1)
}

// WaitIO blocks until the rate limit admits n bytes.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	// WaitN rejects bursts larger than the bucket; split them.
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
