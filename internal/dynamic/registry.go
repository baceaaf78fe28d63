package dynamic

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ModelHandle is one cached, materialized model: the validated definition
// plus its resolved physical table.
type ModelHandle struct {
	Definition *ModelDefinition
	Table      string
	BuiltAt    time.Time
}

// Registry caches materialized model handles by qualified name. Entries are
// never invalidated implicitly: a stale handle stays cached until someone
// calls Evict, typically the service layer after a definition changed.
type Registry struct {
	mu     sync.Mutex
	models map[string]*ModelHandle
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*ModelHandle)}
}

// Get returns the cached handle for a qualified name, if present.
func (r *Registry) Get(name string) (*ModelHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.models[name]
	return h, ok
}

// GetOrBuild returns the cached handle or builds, validates and caches one
// from the supplied loader. The lock is held across the build so concurrent
// callers for the same name never build twice.
func (r *Registry) GetOrBuild(name string, load func() (*ModelDefinition, error)) (*ModelHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.models[name]; ok {
		return h, nil
	}

	def, err := load()
	if err != nil {
		return nil, fmt.Errorf("loading model %q: %w", name, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}

	h := &ModelHandle{
		Definition: def,
		Table:      def.TableName(),
		BuiltAt:    time.Now(),
	}
	r.models[name] = h
	return h, nil
}

// Evict drops a cached handle. Safe to call for names that were never cached.
func (r *Registry) Evict(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, name)
}

// Names returns the cached qualified names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.models))
	for n := range r.models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
