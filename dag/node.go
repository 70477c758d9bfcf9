package dag

import "context"

// Node is the contract every registered node type satisfies: a terminal
// call that returns a data map, or an error.
//
// Implementations should validate their own params, respect context
// cancellation, and never panic — the executor converts a panic to a
// FAILED result, but a well-behaved node returns an error instead.
type Node interface {
	Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)
}

// StreamingNode is the streaming variant of Node: it may publish zero or
// more partial data maps on partial before returning its final map.
// The executor takes the streaming path whenever the node instance
// implements StreamingNode; it does not consult Descriptor.Streaming.
type StreamingNode interface {
	ExecuteStream(ctx context.Context, params map[string]interface{}, partial chan<- map[string]interface{}) (map[string]interface{}, error)
}

// NodeFunc adapts a plain function to Node, mirroring the function-adapter
// convention used throughout this codebase for single-method interfaces.
type NodeFunc func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)

// Execute implements Node.
func (f NodeFunc) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	return f(ctx, params)
}

// ParamSchema describes one declared parameter of a node descriptor.
type ParamSchema struct {
	Type        string      `json:"type"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Description string      `json:"description"`
}

// Descriptor is the immutable, process-wide metadata for one node type.
// Descriptors are created at startup and never mutated.
type Descriptor struct {
	Type        string                 `json:"type"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Params      map[string]ParamSchema `json:"params"`
	Outputs     map[string]string      `json:"output"`
	Streaming   bool                   `json:"streaming"`
}

// Constructor builds a fresh Node instance for one execution. A node
// instance owns no state beyond the call it serves.
type Constructor func() Node
