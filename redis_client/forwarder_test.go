package redis_client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/leeforge/pyracms/json"
	"github.com/leeforge/pyracms/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		cmd.SetErr(p.err)
		return cmd
	}
	p.msgs = append(p.msgs, published{channel: channel, payload: message.([]byte)})
	cmd.SetVal(1)
	return cmd
}

func (p *fakePublisher) snapshot() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

// syncBus delivers events inline.
type syncBus struct {
	mu       sync.Mutex
	handlers map[string][]plugin.EventHandler
	last     error
}

type syncSub struct {
	bus   *syncBus
	topic string
}

func (s syncSub) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.handlers, s.topic)
}

func (b *syncBus) Publish(ctx context.Context, event plugin.Event) error {
	b.mu.Lock()
	handlers := append([]plugin.EventHandler(nil), b.handlers[event.Name]...)
	b.mu.Unlock()
	for _, h := range handlers {
		b.last = h(ctx, event)
	}
	return nil
}

func (b *syncBus) Subscribe(topic string, handler plugin.EventHandler) plugin.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]plugin.EventHandler)
	}
	b.handlers[topic] = append(b.handlers[topic], handler)
	return syncSub{bus: b, topic: topic}
}

func (b *syncBus) Close() error { return nil }

func lifecycleEvent(topic string) plugin.Event {
	return plugin.Event{
		ID:        "evt-1",
		Name:      topic,
		Source:    "registry",
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Data:      plugin.LifecycleEvent{PluginID: "forum", Version: "1.0.0", State: plugin.StateActive},
	}
}

func TestForwarderPublishesLifecycleEvents(t *testing.T) {
	pub := &fakePublisher{}
	bus := &syncBus{}
	f := NewForwarder(pub, "cms", nil)
	f.Attach(bus)

	require.NoError(t, bus.Publish(context.Background(), lifecycleEvent(plugin.TopicActivated)))
	require.NoError(t, bus.Publish(context.Background(), plugin.Event{Name: "forum.topic.created"}))

	msgs := pub.snapshot()
	require.Len(t, msgs, 1, "only lifecycle topics are forwarded")
	assert.Equal(t, "cms.plugin.activated", msgs[0].channel)

	var decoded struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Data struct {
			PluginID string `json:"pluginId"`
			State    string `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msgs[0].payload, &decoded))
	assert.Equal(t, "evt-1", decoded.ID)
	assert.Equal(t, "forum", decoded.Data.PluginID)
	assert.Equal(t, "active", decoded.Data.State)
}

func TestForwarderReportsPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	bus := &syncBus{}
	NewForwarder(pub, "", nil).Attach(bus)

	require.NoError(t, bus.Publish(context.Background(), lifecycleEvent(plugin.TopicRegistered)))
	assert.EqualError(t, bus.last, "connection refused")
}

func TestForwarderCloseUnsubscribes(t *testing.T) {
	pub := &fakePublisher{}
	bus := &syncBus{}
	f := NewForwarder(pub, "", nil)
	f.Attach(bus)
	f.Close()

	require.NoError(t, bus.Publish(context.Background(), lifecycleEvent(plugin.TopicDeactivated)))
	assert.Empty(t, pub.snapshot())
	assert.Equal(t, "pyracms.plugin.deactivated", f.Channel(plugin.TopicDeactivated))
}
