package sinks

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// GlobalRegistry is the registry sink subpackages register into.
var GlobalRegistry = NewRegistry()

// Register adds factory to GlobalRegistry.
func Register(factory Factory) {
	GlobalRegistry.Register(factory)
}

// Registry holds registered sink factories. The app uses it to create the
// sink each admission variant forwards to.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a new Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for a sink type.
func (r *Registry) Register(factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[factory.Name()] = factory
}

// Create validates cfg and builds a Sink for the given type.
func (r *Registry) Create(ctx context.Context, name string, cfg Config) (Sink, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown sink type: %s", name)
	}
	if err := r.ValidateConfig(name, cfg); err != nil {
		return nil, err
	}
	return factory.Create(ctx, cfg)
}

// ValidateConfig runs the factory's optional ValidateConfig before create. Returns nil if type unknown or no validator.
func (r *Registry) ValidateConfig(typeName string, cfg Config) error {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	if v, ok := factory.(interface{ ValidateConfig(Config) error }); ok {
		return v.ValidateConfig(cfg)
	}
	return nil
}

// ListRegistered returns all registered sink type names, sorted.
func (r *Registry) ListRegistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetTypeInfo returns the config spec for the given sink type. ok is false if the type is not registered.
func (r *Registry) GetTypeInfo(name string) (info SinkTypeInfo, ok bool) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return SinkTypeInfo{}, false
	}
	return factory.ConfigSpec(), true
}

// AllTypesInfo returns config specs for all registered sink types, sorted by type.
func (r *Registry) AllTypesInfo() []SinkTypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SinkTypeInfo, 0, len(r.factories))
	for _, factory := range r.factories {
		out = append(out, factory.ConfigSpec())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
