// Provider registry and router.
//
// The registry is an explicit dependency: constructed once at process start
// and passed by reference into whatever needs to select providers. There is
// no package-level singleton.

package llm

import (
	"log/slog"
	"sort"
)

// Registry holds the set of available providers and a default used when a
// configuration names no provider or an unregistered one.
type Registry struct {
	providers   map[string]Provider
	defaultName string
	log         *slog.Logger
}

// NewRegistry creates a registry whose Select falls back to defaultName.
func NewRegistry(defaultName string, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		providers:   make(map[string]Provider),
		defaultName: defaultName,
		log:         log,
	}
}

// Register adds (or replaces) a provider under its own name.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Select returns the provider for the given configuration name. An empty or
// unregistered name falls back to the default provider; the fallback is
// logged. Deterministic for a fixed registry: the same name always yields the
// same provider. Returns nil only when the default itself is unregistered.
func (r *Registry) Select(name string) Provider {
	if name != "" {
		if p, ok := r.providers[name]; ok {
			return p
		}
	}
	fallback := r.providers[r.defaultName]
	if fallback == nil {
		r.log.Error("default provider not registered", "default", r.defaultName)
		return nil
	}
	if name != "" {
		r.log.Warn("unknown provider, using default",
			"requested", name,
			"default", r.defaultName)
	}
	return fallback
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
