package runtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/leeforge/pyracms/plugin"
	"go.uber.org/zap"
)

// eventBus is the host's plugin.EventBus. Published events go through a
// bounded queue to one dispatcher goroutine, which starts every matching
// handler on its own goroutine. A full queue blocks Publish until the
// caller's context expires.
type eventBus struct {
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]handlerEntry
	nextID   atomic.Uint64

	// sendMu is held shared by publishers while they enqueue and
	// exclusively by Close, so nothing is enqueued after the dispatcher
	// has drained the queue.
	sendMu   sync.RWMutex
	closed   bool
	queue    chan queued
	inflight sync.WaitGroup
	done     chan struct{}
	stopped  chan struct{}
}

type queued struct {
	ctx   context.Context
	event plugin.Event
}

type handlerEntry struct {
	id uint64
	fn plugin.EventHandler
}

type subscription struct {
	bus   *eventBus
	topic string
	id    uint64
	once  sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.bus.remove(s.topic, s.id) })
}

// NewEventBus creates an event bus queueing up to bufferSize events.
func NewEventBus(bufferSize int, logger *zap.Logger) *eventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &eventBus{
		logger:   logger.Named("events"),
		handlers: make(map[string][]handlerEntry),
		queue:    make(chan queued, bufferSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *eventBus) run() {
	defer close(b.stopped)
	for {
		select {
		case q := <-b.queue:
			b.deliver(q)
		case <-b.done:
			for {
				select {
				case q := <-b.queue:
					b.deliver(q)
				default:
					return
				}
			}
		}
	}
}

func (b *eventBus) deliver(q queued) {
	b.mu.RLock()
	targets := append([]handlerEntry(nil), b.handlers[q.event.Name]...)
	b.mu.RUnlock()

	for _, h := range targets {
		b.inflight.Add(1)
		go b.call(h.fn, q)
	}
}

func (b *eventBus) call(fn plugin.EventHandler, q queued) {
	defer b.inflight.Done()
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", q.event.Name),
				zap.String("id", q.event.ID),
				zap.Error(fmt.Errorf("%v", rec)))
		}
	}()
	if err := fn(q.ctx, q.event); err != nil {
		b.logger.Warn("event handler failed",
			zap.String("event", q.event.Name),
			zap.String("id", q.event.ID),
			zap.Error(err))
	}
}

// Publish enqueues event, filling in its ID and Timestamp when unset.
// Handlers get ctx's values without its cancellation, since they run after
// Publish has returned.
func (b *eventBus) Publish(ctx context.Context, event plugin.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	q := queued{ctx: context.WithoutCancel(ctx), event: event}

	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.closed {
		return plugin.ErrBusClosed
	}

	select {
	case b.queue <- q:
		return nil
	case <-ctx.Done():
		return plugin.ErrPublishTimeout
	}
}

func (b *eventBus) Subscribe(topic string, handler plugin.EventHandler) plugin.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], handlerEntry{id: id, fn: handler})
	b.mu.Unlock()

	return &subscription{bus: b, topic: topic, id: id}
}

func (b *eventBus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.handlers[topic]
	for i, h := range entries {
		if h.id != id {
			continue
		}
		if len(entries) == 1 {
			delete(b.handlers, topic)
		} else {
			b.handlers[topic] = append(entries[:i:i], entries[i+1:]...)
		}
		return
	}
}

// Close rejects further events, delivers what is queued and waits for
// every running handler. Calling Close again is a no-op.
func (b *eventBus) Close() error {
	b.sendMu.Lock()
	if b.closed {
		b.sendMu.Unlock()
		return nil
	}
	b.closed = true
	b.sendMu.Unlock()

	close(b.done)
	<-b.stopped
	b.inflight.Wait()
	return nil
}
