package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

func TestBus_DeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus(16, zerolog.Nop())
	bus.Start(ctx)

	var mu sync.Mutex
	var got []domain.ActivityKind
	done := make(chan struct{})
	bus.Subscribe(func(ev domain.UIEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.Kind)
		if len(got) == 3 {
			close(done)
		}
	})

	for _, k := range []domain.ActivityKind{domain.ActivityClick, domain.VisibilityHidden, domain.VisibilityVisible} {
		if !bus.Publish(domain.UIEvent{Kind: k}) {
			t.Fatalf("publish of %s rejected", k)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("events not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	if got[0] != domain.ActivityClick || got[1] != domain.VisibilityHidden || got[2] != domain.VisibilityVisible {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestBus_PublishDropsWhenFull(t *testing.T) {
	bus := NewBus(1, zerolog.Nop())

	if !bus.Publish(domain.UIEvent{Kind: domain.ActivityKeyDown}) {
		t.Fatalf("first publish must be accepted")
	}
	if bus.Publish(domain.UIEvent{Kind: domain.ActivityKeyDown}) {
		t.Fatalf("publish into a full buffer must be dropped, not block")
	}
}

func TestBus_UnsubscribeAndPanickingListener(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus(0, zerolog.Nop())
	bus.Start(ctx)

	removed := make(chan struct{}, 1)
	unsubscribe := bus.Subscribe(func(domain.UIEvent) { removed <- struct{}{} })
	unsubscribe()
	bus.Subscribe(func(domain.UIEvent) { panic("boom") })

	delivered := make(chan struct{}, 1)
	bus.Subscribe(func(domain.UIEvent) { delivered <- struct{}{} })

	bus.Publish(domain.UIEvent{Kind: domain.ActivityScroll})

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatalf("healthy listener not reached")
	}
	select {
	case <-removed:
		t.Fatalf("unsubscribed listener was called")
	default:
	}
}
