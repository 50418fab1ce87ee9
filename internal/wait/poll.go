// Package wait provides the bounded sleep-poll loop used wherever the remote page
// renders asynchronously.
package wait

import (
	"context"
	"time"
)

// Clock abstracts time so poll loops can run against simulated time in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Poller evaluates a predicate every Interval until it holds or Timeout elapses.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    Clock
}

// Condition is one poll tick. An error counts as "not yet".
type Condition func(ctx context.Context) (bool, error)

// Until polls cond. The first evaluation happens immediately. It returns true as
// soon as cond holds, false once the timeout elapses, and ctx.Err() if the context
// ends first. It never evaluates cond after returning.
func (p Poller) Until(ctx context.Context, cond Condition) (bool, error) {
	clock := p.Clock
	if clock == nil {
		clock = RealClock
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	start := clock.Now()
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if ok, err := cond(ctx); err == nil && ok {
			return true, nil
		}

		remaining := p.Timeout - clock.Now().Sub(start)
		if remaining <= 0 {
			return false, nil
		}
		if interval < remaining {
			remaining = interval
		}
		if err := clock.Sleep(ctx, remaining); err != nil {
			return false, err
		}
	}
}

// Sleep pauses for d on clock, returning early if ctx ends.
func Sleep(ctx context.Context, clock Clock, d time.Duration) error {
	if clock == nil {
		clock = RealClock
	}
	if d <= 0 {
		return ctx.Err()
	}
	return clock.Sleep(ctx, d)
}
