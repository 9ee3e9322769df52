package plugin

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBusClosed is returned when publishing to a closed EventBus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrPublishTimeout is returned when the publish buffer is full and context expires.
	ErrPublishTimeout = errors.New("event publish timeout: buffer full")
)

// Lifecycle topics published by the registry.
const (
	TopicRegistered   = "plugin.registered"
	TopicUnregistered = "plugin.unregistered"
	TopicActivated    = "plugin.activated"
	TopicDeactivated  = "plugin.deactivated"
	TopicInstalled    = "plugin.installed"
	TopicUninstalled  = "plugin.uninstalled"
)

// LifecycleTopics lists every topic the registry publishes.
var LifecycleTopics = []string{
	TopicRegistered,
	TopicUnregistered,
	TopicActivated,
	TopicDeactivated,
	TopicInstalled,
	TopicUninstalled,
}

// Event represents a host or plugin event.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Data      any       `json:"data,omitempty"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LifecycleEvent is the payload of the lifecycle topics.
type LifecycleEvent struct {
	PluginID string `json:"pluginId"`
	Version  string `json:"version"`
	State    State  `json:"state"`
}

// EventHandler is the typed handler for events.
type EventHandler func(ctx context.Context, event Event) error

// Subscription represents an active event subscription.
type Subscription interface {
	Unsubscribe()
}

// EventBus carries events between the host and plugins.
type EventBus interface {
	// Publish sends an event. Blocks if buffer is full until ctx expires.
	Publish(ctx context.Context, event Event) error

	Subscribe(topic string, handler EventHandler) Subscription

	// Close drains pending events and waits for in-flight handlers to complete.
	Close() error
}
