package dag

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is a process-wide mapping from type tag to a node constructor,
// plus the descriptor catalogue used by the validator, the parameter
// resolver's error messages, and the agent controller's tool-list prompt
// segment. Registration is additive; registries are safe for concurrent
// reads after startup, since registration normally happens once before
// any workflow runs.
type Registry struct {
	mu           sync.RWMutex
	descriptors  map[string]Descriptor
	constructors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors:  make(map[string]Descriptor),
		constructors: make(map[string]Constructor),
	}
}

// Register adds a node type. It fails with CodeDuplicateType if the tag
// is already registered — registration is additive, never replacing.
func (r *Registry) Register(desc Descriptor, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[desc.Type]; exists {
		return &EngineError{
			Message: fmt.Sprintf("node type %q already registered", desc.Type),
			Code:    CodeDuplicateType,
		}
	}
	r.descriptors[desc.Type] = desc
	r.constructors[desc.Type] = ctor
	return nil
}

// Has reports whether a type tag is registered.
func (r *Registry) Has(nodeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[nodeType]
	return ok
}

// New constructs a fresh Node instance for the given type tag. Returns
// CodeUnknownType if the tag was never registered.
func (r *Registry) New(nodeType string) (Node, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[nodeType]
	r.mu.RUnlock()
	if !ok {
		return nil, &EngineError{
			Message: fmt.Sprintf("no node type registered for %q", nodeType),
			Code:    CodeUnknownType,
		}
	}
	return ctor(), nil
}

// Descriptor returns the static metadata for a registered type.
func (r *Registry) Descriptor(nodeType string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[nodeType]
	return d, ok
}

// Descriptors returns every registered descriptor, sorted by type tag for
// deterministic prompt rendering.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sortDescriptors(out)
	return out
}

func sortDescriptors(d []Descriptor) {
	for i := 1; i < len(d); i++ {
		for j := i; j > 0 && d[j-1].Type > d[j].Type; j-- {
			d[j-1], d[j] = d[j], d[j-1]
		}
	}
}

// WithoutType returns a shallow copy of the registry excluding one type
// tag. Used to build the sub-registry a loop node's subgraph runs
// against, so a loop node can never re-enter itself (Design Notes: loop
// nodes get a narrow execute_subgraph capability over a registry that
// excludes the loop node type).
func (r *Registry) WithoutType(nodeType string) *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewRegistry()
	for t, d := range r.descriptors {
		if t == nodeType {
			continue
		}
		out.descriptors[t] = d
		out.constructors[t] = r.constructors[t]
	}
	return out
}

// Catalogue renders a human-readable listing of every registered node,
// its params, and its outputs — used as the node catalogue segment of
// the workflow synthesizer prompt. The result is not cached; the
// workflow producer renders it again for every request.
func (r *Registry) Catalogue() string {
	var b strings.Builder
	for _, d := range r.Descriptors() {
		fmt.Fprintf(&b, "Node: %s\nType: %s\nDescription: %s\n", d.Name, d.Type, d.Description)
		if len(d.Params) > 0 {
			b.WriteString("Parameters:\n")
			for name, p := range d.Params {
				req := "optional"
				if p.Required {
					req = "required"
				}
				fmt.Fprintf(&b, "  - %s (%s, %s): %s\n", name, p.Type, req, p.Description)
			}
		}
		if len(d.Outputs) > 0 {
			b.WriteString("Outputs:\n")
			for name, desc := range d.Outputs {
				fmt.Fprintf(&b, "  - %s: %s\n", name, desc)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
