package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps action names to tool implementations. It is safe for
// concurrent use; registration after sealing panics.
type Registry struct {
	mu     sync.RWMutex
	sealed bool
	tools  map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry. Panics if the registry is sealed or
// the name is already taken.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		panic(fmt.Sprintf("tool registry sealed - cannot register tool '%s'", t.Name()))
	}
	if _, exists := r.tools[t.Name()]; exists {
		panic(fmt.Sprintf("tool '%s' already registered", t.Name()))
	}
	r.tools[t.Name()] = t
}

// Seal prevents further registrations. Called once wiring is complete.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool '%s' not registered", name)
	}
	return tool, nil
}

// Exec resolves and runs the named tool. An unknown tool name is reported as
// a result string so the reasoning engine can self-correct.
func (r *Registry) Exec(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, err := r.Get(name)
	if err != nil {
		return fmt.Sprintf("Error: unknown action '%s'", name), nil
	}
	return tool.Exec(ctx, args)
}

// Definitions returns all tool definitions in name order, for the LLM request.
func (r *Registry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
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
