package feed

import (
	"context"
	"sync/atomic"
)

// Trigger is the observation handle bound to whichever element is
// currently last in the rendered list. Exactly one live handle exists
// per paginator: binding a new one releases the previous, so stale
// observers can never accumulate.
type Trigger struct {
	released  atomic.Bool
	threshold float64
	hasMore   func() bool
	loadMore  func(ctx context.Context) bool
}

// Bind returns a fresh trigger, releasing any previously bound one.
// A trigger bound to a closed paginator is inert.
func (p *Paginator[T]) Bind() *Trigger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.trigger != nil {
		p.trigger.released.Store(true)
	}

	t := &Trigger{
		threshold: p.config.Threshold,
		hasMore:   p.HasMore,
		loadMore:  p.LoadMore,
	}
	if p.closed {
		t.released.Store(true)
		return t
	}
	p.trigger = t
	return t
}

// Observe reports an element visibility ratio in [0, 1]. When the
// bound element is visible past the threshold and more pages exist,
// the next page load starts. Returns true if a load was started.
func (t *Trigger) Observe(ctx context.Context, ratio float64) bool {
	if t.released.Load() {
		return false
	}
	if ratio < t.threshold {
		return false
	}
	if !t.hasMore() {
		return false
	}
	return t.loadMore(ctx)
}

// Release detaches the trigger; further Observe calls are no-ops.
func (t *Trigger) Release() {
	t.released.Store(true)
}

// Released reports whether the trigger has been detached.
func (t *Trigger) Released() bool {
	return t.released.Load()
}
