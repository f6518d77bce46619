// Package command implements the process-wide mapping from a requirement's
// Command name to the handler that executes it. Registration is explicit —
// callers invoke Register themselves at startup — rather than relying on
// package init() side effects whose order would otherwise be
// load-order-dependent.
package command

import (
	"fmt"
	"sync"

	"github.com/arung-agamani/denpa-radio/internal/requirement"
)

// HandlerFunc executes one due requirement at the given deadline.
type HandlerFunc func(deadline int64, req requirement.Requirement) error

// Registry is a process-wide, write-once-then-read-many map of Command to
// HandlerFunc. Treated as immutable after startup: registration happens
// once, during startup wiring. Readers still take the read lock, which is
// uncontended once registration is complete.
type Registry struct {
	mu       sync.RWMutex
	handlers map[requirement.Command]HandlerFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[requirement.Command]HandlerFunc)}
}

// Register installs fn as the handler for cmd, overwriting any previous
// registration. Intended to be called only during startup wiring.
func (r *Registry) Register(cmd requirement.Command, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[cmd] = fn
}

// HasHandler reports whether cmd has a registered handler. Matches the
// function-value signature requirement.CheckValidity and Engine.RunBlock
// expect, so the registry never needs to be imported by the requirement
// package.
func (r *Registry) HasHandler(cmd requirement.Command) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[cmd]
	return ok
}

// Dispatch resolves cmd to its handler and invokes it. Unknown commands are
// reported as an error rather than silently ignored — the requirement
// engine is expected to have already consulted HasHandler and skip unknown
// names before ever calling Dispatch, per spec's "unknown names log an
// error and are skipped."
func (r *Registry) Dispatch(cmd requirement.Command, deadline int64, req requirement.Requirement) error {
	r.mu.RLock()
	fn, ok := r.handlers[cmd]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("command: no handler registered for %s", cmd)
	}
	return fn(deadline, req)
}
