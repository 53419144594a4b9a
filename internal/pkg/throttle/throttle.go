// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package throttle provides a fixed-delay rate limiter for sequential remote calls.
//
// A Throttler is not a token bucket. There is no burst allowance: every call
// after the first waits the full delay, regardless of how long the caller
// spent between calls. With a delay of 500ms, a strictly sequential caller
// never exceeds 2 requests per second.
package throttle

import (
	"context"
	"time"
)

// DefaultDelay is the default delay between successive calls.
const DefaultDelay = 500 * time.Millisecond

// Throttler gates successive remote calls.
type Throttler interface {
	// Throttle blocks until the caller may issue its next call.
	//
	// The first call returns immediately. Every later call waits the full delay.
	// Returns ctx.Err() if the context is cancelled while waiting.
	Throttle(ctx context.Context) error
}

// NewThrottler creates a new Throttler that waits delay between successive calls.
//
// A non-positive delay disables waiting. The returned Throttler is not safe for
// concurrent use; callers are expected to issue calls sequentially.
func NewThrottler(delay time.Duration) Throttler {
	return &throttler{
		delay: delay,
	}
}

// *** PRIVATE ***

type throttler struct {
	delay  time.Duration
	called bool
}

func (t *throttler) Throttle(ctx context.Context) error {
	if !t.called {
		t.called = true
		return ctx.Err()
	}
	if t.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(t.delay):
		return nil
	}
}
