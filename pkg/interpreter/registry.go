package interpreter

import (
	"context"
	"sync"
	"time"
)

// Handler realizes the effect of a command.
// It receives the step time current at invocation and should not return
// before its nominal duration has elapsed. The interpreter runs each handler
// on its own goroutine; a returned error fails the step.
type Handler func(ctx context.Context, stepTime time.Duration) error

// RegisteredHandler is a handler together with the source that registered it.
type RegisteredHandler struct {
	Source  string
	Handler Handler
}

// Registry maps command names to handlers.
// Several sources may register the same command name; all of them are invoked
// on every execution of that command, started in registration order.
type Registry struct {
	handlers map[string][]RegisteredHandler
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string][]RegisteredHandler),
	}
}

// Add registers handler for name under source.
// Registering the same (name, source) pair again replaces the handler and
// keeps its original position.
func (r *Registry) Add(name, source string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.handlers[name]
	for i, e := range entries {
		if e.Source == source {
			entries[i].Handler = handler
			return
		}
	}
	r.handlers[name] = append(entries, RegisteredHandler{Source: source, Handler: handler})
}

// Remove unregisters the handler for name registered by source.
// Returns false if there was none.
func (r *Registry) Remove(name, source string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.handlers[name]
	for i, e := range entries {
		if e.Source == source {
			r.handlers[name] = append(entries[:i:i], entries[i+1:]...)
			if len(r.handlers[name]) == 0 {
				delete(r.handlers, name)
			}
			return true
		}
	}
	return false
}

// RemoveSource unregisters every handler registered by source and returns how
// many were removed.
func (r *Registry) RemoveSource(source string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for name, entries := range r.handlers {
		kept := entries[:0:0]
		for _, e := range entries {
			if e.Source == source {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(r.handlers, name)
		} else {
			r.handlers[name] = kept
		}
	}
	return removed
}

// Handlers returns the handlers for name in registration order.
// The result is a copy and is empty when nothing is registered.
func (r *Registry) Handlers(name string) []RegisteredHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.handlers[name]
	result := make([]RegisteredHandler, len(entries))
	copy(result, entries)
	return result
}

// Has reports whether at least one handler is registered for name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[name]) > 0
}

// Count returns the total number of registered handlers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, entries := range r.handlers {
		n += len(entries)
	}
	return n
}
