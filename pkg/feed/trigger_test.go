package feed

import (
	"context"
	"testing"
)

func newTriggerFixture(t *testing.T) (*fakeGateway, *Paginator[post]) {
	t.Helper()
	gw := newFakeGateway()
	pages(gw)
	p := New[post](gw, "/posts/", DefaultConfig())
	p.Refresh(context.Background())
	return gw, p
}

func TestTrigger_FiresPastThreshold(t *testing.T) {
	gw, p := newTriggerFixture(t)
	trigger := p.Bind()
	ctx := context.Background()

	if trigger.Observe(ctx, 0.2) {
		t.Error("Observe below threshold fired")
	}
	if got := gw.count("/posts/?cursor=p2"); got != 0 {
		t.Fatalf("cursor fetched below threshold (calls = %d)", got)
	}

	if !trigger.Observe(ctx, 0.8) {
		t.Error("Observe past threshold did not fire")
	}
	if got := len(p.Items()); got != 4 {
		t.Errorf("items = %d, want 4", got)
	}
}

func TestTrigger_NoFireWithoutMorePages(t *testing.T) {
	_, p := newTriggerFixture(t)
	ctx := context.Background()
	trigger := p.Bind()

	trigger.Observe(ctx, 1.0) // consumes the final page
	if p.HasMore() {
		t.Fatal("setup: expected exhausted cursor")
	}

	if trigger.Observe(ctx, 1.0) {
		t.Error("Observe fired with no next cursor")
	}
}

func TestTrigger_RebindReleasesPrevious(t *testing.T) {
	gw, p := newTriggerFixture(t)
	ctx := context.Background()

	first := p.Bind()
	second := p.Bind()

	if !first.Released() {
		t.Error("first trigger still live after rebind")
	}
	if first.Observe(ctx, 1.0) {
		t.Error("released trigger fired")
	}
	if got := gw.count("/posts/?cursor=p2"); got != 0 {
		t.Fatalf("released trigger reached the backend (calls = %d)", got)
	}

	if !second.Observe(ctx, 1.0) {
		t.Error("live trigger did not fire")
	}
}

func TestTrigger_ManualRelease(t *testing.T) {
	_, p := newTriggerFixture(t)
	trigger := p.Bind()

	trigger.Release()
	if trigger.Observe(context.Background(), 1.0) {
		t.Error("Observe after Release fired")
	}
}

func TestTrigger_CloseReleasesBoundTrigger(t *testing.T) {
	_, p := newTriggerFixture(t)
	trigger := p.Bind()

	p.Close()
	if !trigger.Released() {
		t.Error("Close left the bound trigger live")
	}

	// Binding after Close hands out an inert trigger.
	late := p.Bind()
	if !late.Released() {
		t.Error("Bind after Close returned a live trigger")
	}
}

func TestTrigger_CustomThreshold(t *testing.T) {
	gw := newFakeGateway()
	pages(gw)
	p := New[post](gw, "/posts/", Config{Threshold: 0.9})
	p.Refresh(context.Background())

	trigger := p.Bind()
	if trigger.Observe(context.Background(), 0.8) {
		t.Error("Observe fired below custom threshold")
	}
	if !trigger.Observe(context.Background(), 0.95) {
		t.Error("Observe did not fire past custom threshold")
	}
}
