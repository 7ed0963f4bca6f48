package tool

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Errors returned by registry operations.
var (
	ErrToolExists  = errors.New("tool already registered")
	ErrInvalidTool = errors.New("invalid tool")
)

// Registry manages the tool set for one run.
//
// Contract:
// - Concurrency: safe for concurrent use; the sandbox snapshots the
//   registry at the start of each turn.
// - Ownership: registered tools are owned by the registry's run.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. It fails on a nil tool, an empty name, an
// unrecognized classification, or a duplicate name.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("%w: nil tool", ErrInvalidTool)
	}
	def := t.Definition()
	if def.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTool)
	}
	if def.Classification != "" && !def.Classification.Valid() {
		return fmt.Errorf("%w: unknown classification %q", ErrInvalidTool, def.Classification)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolExists, def.Name)
	}
	r.tools[def.Name] = t
	return nil
}

// Get returns a tool by name, or nil if absent.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// All returns a snapshot of the registered tools keyed by name.
func (r *Registry) All() map[string]Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Tool, len(r.tools))
	for name, t := range r.tools {
		out[name] = t
	}
	return out
}

// Replace swaps the implementation bound to an existing name. The host may
// call this between turns; the sandbox re-binds tools on every execute.
func (r *Registry) Replace(t Tool) error {
	if t == nil {
		return fmt.Errorf("%w: nil tool", ErrInvalidTool)
	}
	def := t.Definition()
	if def.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTool)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Name] = t
	return nil
}
