package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
	"github.com/wholesalehub/sessiongate/internal/metrics"
)

const defaultBuffer = 256

var _ ports.EventSource = (*Bus)(nil)

// Bus carries host UI events to session listeners. Publish never blocks the
// host: when the buffer is full the event is dropped and counted. A single
// worker delivers events in publish order.
type Bus struct {
	ch  chan domain.UIEvent
	log zerolog.Logger

	mu        sync.RWMutex
	listeners map[int]func(domain.UIEvent)
	nextID    int
}

// NewBus creates a Bus with the given buffer size. If buffer <= 0,
// defaultBuffer is used.
func NewBus(buffer int, log zerolog.Logger) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{
		ch:        make(chan domain.UIEvent, buffer),
		log:       log,
		listeners: make(map[int]func(domain.UIEvent)),
	}
}

// Start launches the delivery worker. It stops when ctx is cancelled.
func (b *Bus) Start(ctx context.Context) {
	go b.run(ctx)
}

// Publish enqueues ev and reports whether it was accepted.
func (b *Bus) Publish(ev domain.UIEvent) bool {
	select {
	case b.ch <- ev:
		return true
	default:
		metrics.ActivityEventsDroppedTotal.Inc()
		return false
	}
}

func (b *Bus) Subscribe(listener func(domain.UIEvent)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func (b *Bus) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.ch:
			b.deliver(ev)
		}
	}
}

func (b *Bus) deliver(ev domain.UIEvent) {
	b.mu.RLock()
	listeners := make([]func(domain.UIEvent), 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		b.safeCall(fn, ev)
	}
}

// safeCall keeps one faulty listener from stopping delivery.
func (b *Bus) safeCall(fn func(domain.UIEvent), ev domain.UIEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Str("event", string(ev.Kind)).Msg("ui event listener panicked")
		}
	}()
	fn(ev)
}
