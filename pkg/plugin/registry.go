// Package plugin provides a registry for swappable providers: phrase
// analyzers and result reporters are registered by name and looked up at
// runtime, so new providers need no changes to the core engine or CLI.
// Registration happens at compile time from init() functions, or at runtime
// from dynamically loaded plugins.
package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Provider kinds understood by the registry.
const (
	KindPhrase   = "phrase"   // factories return phrase.Analyzer
	KindReporter = "reporter" // factories return report.Writer
)

// Factory creates a provider instance from configuration. The returned
// value is cast by the caller to the kind's provider interface.
type Factory func(cfg map[string]any) (any, error)

// Plugin is a registered provider with its metadata.
type Plugin struct {
	Kind        string
	Name        string
	Factory     Factory
	Description string
	Version     string
}

// Registry manages provider registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]map[string]*Plugin // [kind][name]
}

var globalRegistry = &Registry{
	plugins: make(map[string]map[string]*Plugin),
}

// Register adds a provider to the global registry, typically from an
// init() function. Panics on duplicate kind/name.
func Register(kind, name string, factory Factory) {
	globalRegistry.Register(kind, name, factory)
}

// RegisterWithMetadata adds a provider with metadata to the global
// registry. Panics on duplicate kind/name.
func RegisterWithMetadata(p *Plugin) {
	globalRegistry.RegisterWithMetadata(p)
}

// Get retrieves a provider factory from the global registry.
func Get(kind, name string) (Factory, bool) {
	return globalRegistry.Get(kind, name)
}

// List returns registered providers of a kind, or all providers when kind
// is empty, sorted by kind then name.
func List(kind string) []*Plugin {
	return globalRegistry.List(kind)
}

// ListKinds returns all registered provider kinds in sorted order.
func ListKinds() []string {
	return globalRegistry.ListKinds()
}

// Register adds a provider to this registry instance.
func (r *Registry) Register(kind, name string, factory Factory) {
	r.RegisterWithMetadata(&Plugin{Kind: kind, Name: name, Factory: factory})
}

// RegisterWithMetadata adds a provider with metadata to this registry
// instance. Panics on empty fields or duplicate registration: both are
// programming errors in the registering package.
func (r *Registry) RegisterWithMetadata(p *Plugin) {
	if p.Kind == "" {
		panic("plugin kind cannot be empty")
	}
	if p.Name == "" {
		panic("plugin name cannot be empty")
	}
	if p.Factory == nil {
		panic("plugin factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.plugins[p.Kind] == nil {
		r.plugins[p.Kind] = make(map[string]*Plugin)
	}
	if existing, exists := r.plugins[p.Kind][p.Name]; exists {
		panic(fmt.Sprintf("plugin %s/%s already registered (existing version: %s, new version: %s)",
			p.Kind, p.Name, existing.Version, p.Version))
	}
	r.plugins[p.Kind][p.Name] = p
}

// Get retrieves a provider factory from this registry instance.
func (r *Registry) Get(kind, name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kindMap, exists := r.plugins[kind]
	if !exists {
		return nil, false
	}
	p, exists := kindMap[name]
	if !exists {
		return nil, false
	}
	return p.Factory, true
}

// List returns registered providers of a kind, or all when kind is empty.
func (r *Registry) List(kind string) []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var plugins []*Plugin
	for k, kindMap := range r.plugins {
		if kind != "" && k != kind {
			continue
		}
		for _, p := range kindMap {
			plugins = append(plugins, p)
		}
	}

	sort.Slice(plugins, func(i, j int) bool {
		if plugins[i].Kind != plugins[j].Kind {
			return plugins[i].Kind < plugins[j].Kind
		}
		return plugins[i].Name < plugins[j].Name
	})
	return plugins
}

// ListKinds returns this registry's provider kinds in sorted order.
func (r *Registry) ListKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.plugins))
	for kind := range r.plugins {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Clear removes all providers from this registry instance. Testing only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = make(map[string]map[string]*Plugin)
}
