// Package nodes is the set of node implementations registered with a
// dag.Registry at startup: pure functions, transport-backed nodes
// wrapping llm.Transport, and storage-backed nodes wrapping the SQL and
// full-text-index drivers the rest of the example corpus carries.
package nodes

import (
	"context"
	"fmt"

	"github.com/dshills/agentgraph-go/dag"
)

// AddDescriptor describes the add node: data["result"] = a + b.
var AddDescriptor = dag.Descriptor{
	Type:        "add",
	Name:        "Add",
	Description: "Adds two numeric parameters.",
	Params: map[string]dag.ParamSchema{
		"a": {Type: "number", Required: true, Description: "first addend"},
		"b": {Type: "number", Required: true, Description: "second addend"},
	},
	Outputs: map[string]string{"result": "a + b"},
}

type Add struct{}

func (Add) Execute(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	a, err := numberParam(params, "a")
	if err != nil {
		return nil, err
	}
	b, err := numberParam(params, "b")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"result": a + b}, nil
}

// MultiplyDescriptor describes the multiply node: data["result"] = a * b.
var MultiplyDescriptor = dag.Descriptor{
	Type:        "multiply",
	Name:        "Multiply",
	Description: "Multiplies two numeric parameters.",
	Params: map[string]dag.ParamSchema{
		"a": {Type: "number", Required: true, Description: "first factor"},
		"b": {Type: "number", Required: true, Description: "second factor"},
	},
	Outputs: map[string]string{"result": "a * b"},
}

type Multiply struct{}

func (Multiply) Execute(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	a, err := numberParam(params, "a")
	if err != nil {
		return nil, err
	}
	b, err := numberParam(params, "b")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"result": a * b}, nil
}

func numberParam(params map[string]interface{}, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%s: missing required parameter", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s: expected a number, got %T", key, v)
	}
}
