package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/motherlink/pkg/domain"
)

// Call is everything a handler sees about the request that reached it.
type Call struct {
	Request domain.Request
	Session *domain.Session
	Locale  domain.Locale

	// NodeID is the node whose choice resolved to the handler.
	NodeID string

	// Trail is the (node, token) sequence walked so far, including the step
	// that selected the handler.
	Trail domain.Trail
}

// Handler produces the final USSD response text for an action.
// The returned text carries its own CON/END marker.
type Handler func(ctx context.Context, call Call) (string, error)

// Registry maps action IDs to handlers, split by dispatch kind.
type Registry struct {
	mu        sync.RWMutex
	immediate map[string]Handler
	terminal  map[string]Handler
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		immediate: make(map[string]Handler),
		terminal:  make(map[string]Handler),
	}
}

// RegisterImmediate adds a handler that runs as soon as its choice is taken.
// If one with the same ID exists, it is overwritten.
func (r *Registry) RegisterImmediate(id string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.immediate[id] = fn
}

// RegisterTerminal adds a handler that ends a flow.
func (r *Registry) RegisterTerminal(id string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminal[id] = fn
}

// HasImmediate reports whether an immediate action is registered.
func (r *Registry) HasImmediate(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.immediate[id]
	return ok
}

// HasTerminal reports whether a terminal action is registered.
func (r *Registry) HasTerminal(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.terminal[id]
	return ok
}

// Lookup resolves the handler an action successor points at.
func (r *Registry) Lookup(s domain.Successor) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		fn Handler
		ok bool
	)
	switch s.Kind {
	case domain.SuccessorImmediate:
		fn, ok = r.immediate[s.Target]
	case domain.SuccessorTerminal:
		fn, ok = r.terminal[s.Target]
	default:
		return nil, fmt.Errorf("%w: %s is not an action", domain.ErrActionNotFound, s)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrActionNotFound, s)
	}
	return fn, nil
}

// Execute looks up and runs the handler for s.
func (r *Registry) Execute(ctx context.Context, s domain.Successor, call Call) (string, error) {
	fn, err := r.Lookup(s)
	if err != nil {
		return "", err
	}
	return fn(ctx, call)
}

// Names lists registered action IDs per kind, sorted.
func (r *Registry) Names() (immediate, terminal []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id := range r.immediate {
		immediate = append(immediate, id)
	}
	for id := range r.terminal {
		terminal = append(terminal, id)
	}
	sort.Strings(immediate)
	sort.Strings(terminal)
	return immediate, terminal
}
