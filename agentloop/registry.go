package agentloop

import (
	"fmt"
	"sync"
)

// ToolDescriptor pairs a tool's prompt-visible metadata with its invocable
// function. Contract optionally names the parameters the tool requires;
// when present, named calls are checked against it before invocation.
type ToolDescriptor struct {
	Name        string
	Description string
	Invoke      ToolFunc
	Contract    []string
}

// ToolRegistry manages tool registration and lookup. Registration order is
// preserved and exposed verbatim in the compiled prompt, so ordering is an
// observable contract. A registry is owned by a single agent; mutating it
// while an invoke call is in flight is undefined.
type ToolRegistry struct {
	mu       sync.RWMutex
	order    []string
	tools    map[string]ToolDescriptor
	revision uint64
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]ToolDescriptor),
	}
}

// Register adds a tool. Registering a duplicate name is an error rather
// than last-write-wins; replacing a tool requires an explicit Unregister
// first, so nothing is silently shadowed.
func (r *ToolRegistry) Register(desc ToolDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if desc.Invoke == nil {
		return fmt.Errorf("tool %q has no invoke function", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("tool %q is already registered; unregister it first", desc.Name)
	}
	r.tools[desc.Name] = desc
	r.order = append(r.order, desc.Name)
	r.revision++
	return nil
}

// Unregister removes a tool. It reports whether the tool was present.
func (r *ToolRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		return false
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.revision++
	return true
}

// Resolve returns the descriptor registered under name.
func (r *ToolRegistry) Resolve(name string) (ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.tools[name]
	return desc, ok
}

// Names returns all registered tool names in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Descriptors returns all descriptors in registration order.
func (r *ToolRegistry) Descriptors() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descs := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		descs = append(descs, r.tools[name])
	}
	return descs
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Revision increments on every mutation. The prompt compiler uses it to
// invalidate its cached compiled form.
func (r *ToolRegistry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}
