package dag

import "fmt"

// Validate runs the four ordered checks against a parsed graph: duplicate
// node IDs, unregistered types, dangling edges, then cycles. It returns
// the first violation found; a graph that passes is immutable from then
// on and guaranteed (P1) to produce exactly one terminal result per node
// on any successful run.
func Validate(g *Graph, reg *Registry) error {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := ids[n.ID]; dup {
			return &EngineError{
				Message: fmt.Sprintf("duplicate node id %q", n.ID),
				Code:    CodeDuplicateID,
			}
		}
		ids[n.ID] = struct{}{}
	}

	for _, n := range g.Nodes {
		if !reg.Has(n.Type) {
			return &EngineError{
				Message: fmt.Sprintf("node %q has unregistered type %q", n.ID, n.Type),
				Code:    CodeUnknownType,
			}
		}
	}

	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if _, ok := ids[e.From]; !ok {
			return &EngineError{
				Message: fmt.Sprintf("edge references unknown node %q", e.From),
				Code:    CodeDanglingEdge,
			}
		}
		if _, ok := ids[e.To]; !ok {
			return &EngineError{
				Message: fmt.Sprintf("edge references unknown node %q", e.To),
				Code:    CodeDanglingEdge,
			}
		}
		adj[e.From] = append(adj[e.From], e.To)
	}

	if cycle := findCycle(g, adj); cycle != nil {
		return &EngineError{
			Message: fmt.Sprintf("cycle detected: %v", cycle),
			Code:    CodeCycle,
		}
	}

	return nil
}

// findCycle performs a recursive DFS with gray/black node coloring,
// returning the witness cycle (as an ordered list of node IDs) if one
// exists, or nil if the graph is acyclic.
func findCycle(g *Graph, adj map[string][]string) []string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully explored
	)
	color := make(map[string]int, len(g.Nodes))
	parent := make(map[string]string, len(g.Nodes))

	var cycle []string
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, next := range adj[id] {
			switch color[next] {
			case white:
				parent[next] = id
				if visit(next) {
					return true
				}
			case gray:
				// Found the back edge id -> next; walk parent pointers
				// from id back to next to build the witness cycle.
				cycle = []string{next}
				cur := id
				for cur != next {
					cycle = append(cycle, cur)
					cur = parent[cur]
				}
				cycle = append(cycle, next)
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, n := range g.Nodes {
		if color[n.ID] == white {
			if visit(n.ID) {
				return cycle
			}
		}
	}
	return nil
}
