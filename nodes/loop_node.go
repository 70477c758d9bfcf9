package nodes

import (
	"context"
	"fmt"

	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/emit"
)

// LoopNodeDescriptor describes the loop_node node: runs an inner
// subgraph once per item of an input list, injecting each item into the
// subgraph's resolver context under item_var.
var LoopNodeDescriptor = dag.Descriptor{
	Type:        "loop_node",
	Name:        "Loop",
	Description: "Executes an inner subgraph once per item of a list.",
	Params: map[string]dag.ParamSchema{
		"items":    {Type: "array", Required: true, Description: "items to iterate over"},
		"subgraph": {Type: "object", Required: true, Description: "subgraph {nodes, edges}"},
		"item_var": {Type: "string", Required: false, Default: "item", Description: "context variable name for the current item"},
	},
	Outputs: map[string]string{"results": "per-iteration results"},
}

// LoopNode runs its subgraph on a fresh dag.Scheduler per iteration,
// against a registry that excludes loop_node itself: this is a narrow
// execute-subgraph capability, not a re-entrant reference to the parent
// engine. The registry passed in here must already be built with
// Registry.WithoutType("loop_node").
type LoopNode struct {
	Registry *dag.Registry
	Pool     *dag.WorkerPool
	Emitter  emit.Emitter
}

func NewLoopNode(registry *dag.Registry, pool *dag.WorkerPool, emitter emit.Emitter) *LoopNode {
	return &LoopNode{Registry: registry, Pool: pool, Emitter: emitter}
}

func (l *LoopNode) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	items, ok := params["items"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("items: expected a list")
	}
	subgraphSpec, ok := params["subgraph"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("subgraph: expected {nodes, edges}")
	}
	itemVar := "item"
	if v, ok := params["item_var"].(string); ok && v != "" {
		itemVar = v
	}

	graph, err := decodeGraph(subgraphSpec)
	if err != nil {
		return nil, fmt.Errorf("loop_node: %w", err)
	}
	if err := dag.Validate(graph, l.Registry); err != nil {
		return nil, fmt.Errorf("loop_node: invalid subgraph: %w", err)
	}

	results := make([]interface{}, len(items))
	for i, item := range items {
		executor := dag.NewExecutor(l.Pool, l.Emitter)
		scheduler := dag.NewScheduler(graph, l.Registry, executor, l.Emitter, fmt.Sprintf("loop-%d", i))
		progress, status := scheduler.Execute(ctx, map[string]interface{}{itemVar: item})
		if status != dag.WorkflowCompleted {
			return nil, fmt.Errorf("loop_node: iteration %d did not complete: %s", i, status)
		}
		results[i] = progressToMap(progress)
	}

	return map[string]interface{}{"results": results}, nil
}

func progressToMap(p dag.Progress) map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for id, r := range p {
		out[id] = r.Data
	}
	return out
}

func decodeGraph(spec map[string]interface{}) (*dag.Graph, error) {
	g := &dag.Graph{}

	rawNodes, _ := spec["nodes"].([]interface{})
	for _, rn := range rawNodes {
		m, ok := rn.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("node entry must be an object")
		}
		id, _ := m["id"].(string)
		nodeType, _ := m["type"].(string)
		params, _ := m["params"].(map[string]interface{})
		if id == "" || nodeType == "" {
			return nil, fmt.Errorf("node entry requires id and type")
		}
		g.Nodes = append(g.Nodes, dag.NodeSpec{ID: id, Type: nodeType, Params: params})
	}

	rawEdges, _ := spec["edges"].([]interface{})
	for _, re := range rawEdges {
		m, ok := re.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("edge entry must be an object")
		}
		from, _ := m["from"].(string)
		to, _ := m["to"].(string)
		if from == "" || to == "" {
			return nil, fmt.Errorf("edge entry requires from and to")
		}
		g.Edges = append(g.Edges, dag.Edge{From: from, To: to})
	}

	return g, nil
}
