package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ServiceRegistry lets plugins publish services to each other. Keys are
// namespaced by plugin id, e.g. "forum.settings".
type ServiceRegistry struct {
	services map[string]any
	mu       sync.RWMutex
}

func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{services: make(map[string]any)}
}

// ServiceKey joins a plugin id and a service name.
func ServiceKey(pluginID, name string) string {
	return pluginID + "." + name
}

// Register stores a service. Returns error if key already exists.
func (sr *ServiceRegistry) Register(key string, svc any) error {
	if key == "" {
		return fmt.Errorf("service key is empty")
	}
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if _, exists := sr.services[key]; exists {
		return fmt.Errorf("service %q already registered", key)
	}
	sr.services[key] = svc
	return nil
}

// Unregister removes a service. Missing keys are ignored.
func (sr *ServiceRegistry) Unregister(key string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	delete(sr.services, key)
}

// Drop removes every service in the plugin's namespace and reports how many
// were removed.
func (sr *ServiceRegistry) Drop(pluginID string) int {
	prefix := pluginID + "."

	sr.mu.Lock()
	defer sr.mu.Unlock()

	n := 0
	for k := range sr.services {
		if strings.HasPrefix(k, prefix) {
			delete(sr.services, k)
			n++
		}
	}
	return n
}

func (sr *ServiceRegistry) Has(key string) bool {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	_, exists := sr.services[key]
	return exists
}

// Keys returns all registered service keys, sorted alphabetically.
func (sr *ServiceRegistry) Keys() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	keys := make([]string, 0, len(sr.services))
	for k := range sr.services {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve looks a service up and asserts its type.
func Resolve[T any](sr *ServiceRegistry, key string) (T, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	var zero T
	svc, exists := sr.services[key]
	if !exists {
		return zero, fmt.Errorf("service %q not found", key)
	}

	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("service %q is %T, want %T", key, svc, zero)
	}
	return typed, nil
}
