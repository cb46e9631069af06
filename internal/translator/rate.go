package translator

import (
	"context"
	"sync"
	"time"
)

// rateGate spaces remote calls a fixed interval apart. Each waiter
// reserves the next free slot under the lock and sleeps outside it, so
// concurrent workers queue up instead of stampeding the API.
type rateGate struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func newRateGate(interval time.Duration) *rateGate {
	return &rateGate{interval: interval}
}

func (g *rateGate) wait(ctx context.Context) error {
	if g.interval <= 0 {
		return ctx.Err()
	}
	g.mu.Lock()
	now := time.Now()
	if g.next.Before(now) {
		g.next = now
	}
	slot := g.next
	g.next = slot.Add(g.interval)
	g.mu.Unlock()
	return sleepCtx(ctx, time.Until(slot))
}

// sleepCtx pauses for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
