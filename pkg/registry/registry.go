// Package registry keeps the set of task implementations known to this process.
package registry

import (
	"sort"
	"sync"

	"github.com/aretw0/vizkit/pkg/ports"
)

// Registry manages the tasks visible to proxies.
// Safe for concurrent use: tasks may be registered from replay or discovery goroutines
// while proxies resolve them.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]ports.Task
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		tasks: make(map[string]ports.Task),
	}
}

// Use registers tasks, replacing any task already registered under the same name.
func (r *Registry) Use(tasks ...ports.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tasks {
		r.tasks[t.Name()] = t
	}
}

// Remove unregisters a task. It reports whether the task was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[name]
	delete(r.tasks, name)
	return ok
}

// FindTask implements ports.TaskRegistry.
func (r *Registry) FindTask(name string) (ports.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Names returns the registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain consults registries in order and returns the first match.
type Chain []ports.TaskRegistry

// FindTask implements ports.TaskRegistry.
func (c Chain) FindTask(name string) (ports.Task, bool) {
	for _, reg := range c {
		if reg == nil {
			continue
		}
		if t, ok := reg.FindTask(name); ok {
			return t, true
		}
	}
	return nil, false
}
