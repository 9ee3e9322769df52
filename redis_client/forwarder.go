package redis_client

import (
	"context"
	"fmt"
	"sync"

	redis "github.com/go-redis/redis/v8"
	"github.com/leeforge/pyracms/json"
	"github.com/leeforge/pyracms/plugin"
	"go.uber.org/zap"
)

// Publisher is the slice of the redis client the forwarder needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Forwarder republishes plugin lifecycle events from the event bus on Redis
// channels named "<prefix>.<topic>".
type Forwarder struct {
	publisher Publisher
	prefix    string
	logger    *zap.Logger

	mu   sync.Mutex
	subs []plugin.Subscription
}

func NewForwarder(publisher Publisher, prefix string, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "pyracms"
	}
	return &Forwarder{publisher: publisher, prefix: prefix, logger: logger.Named("redis-forwarder")}
}

// Channel returns the channel a topic is forwarded to.
func (f *Forwarder) Channel(topic string) string {
	return f.prefix + "." + topic
}

// Attach subscribes to every lifecycle topic on bus.
func (f *Forwarder) Attach(bus plugin.EventBus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, topic := range plugin.LifecycleTopics {
		f.subs = append(f.subs, bus.Subscribe(topic, f.forward))
	}
}

func (f *Forwarder) forward(ctx context.Context, event plugin.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Name, err)
	}
	channel := f.Channel(event.Name)
	if err := f.publisher.Publish(ctx, channel, payload).Err(); err != nil {
		f.logger.Warn("lifecycle event not forwarded",
			zap.String("channel", channel), zap.String("event", event.ID), zap.Error(err))
		return err
	}
	f.logger.Debug("lifecycle event forwarded", zap.String("channel", channel), zap.String("event", event.ID))
	return nil
}

// Close unsubscribes from the bus. The redis client is owned by the caller.
func (f *Forwarder) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		sub.Unsubscribe()
	}
	f.subs = nil
}
