package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/llm"
)

// synthesizerSystemPrompt builds the system prompt that asks the model to
// design a workflow graph over the registered node catalogue, or return
// nothing if the question doesn't need one.
func synthesizerSystemPrompt(catalogue string) string {
	return fmt.Sprintf(`You design workflow graphs for a DAG execution engine. Given a user
question, decide whether it needs a multi-step workflow to answer. If not,
respond with an empty JSON object: {}

Available node types:
%s

Rules:
1. Every node id must be unique within the graph.
2. Use edges to declare data dependencies between nodes.
3. Reference a field of another node's output with "$node_id.field".
4. Match each node's declared parameter types.

Respond with exactly one JSON object of the form:
{"nodes": [{"id": "...", "type": "...", "params": {...}}], "edges": [{"from": "...", "to": "..."}]}`, catalogue)
}

// generateWorkflow asks the synthesizer model for a workflow graph over
// text. A nil graph (with no error) means the model decided no workflow
// was needed.
func generateWorkflow(ctx context.Context, synth *llm.Transport, catalogue, text string) (*dag.Graph, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: synthesizerSystemPrompt(catalogue)},
		{Role: llm.RoleUser, Content: text},
	}
	out, err := synth.Call(ctx, messages, nil)
	if err != nil {
		return nil, fmt.Errorf("workflow synthesis: %w", err)
	}

	raw := stripFence(out.Text)
	var graph dag.Graph
	if err := json.Unmarshal([]byte(raw), &graph); err != nil {
		return nil, nil
	}
	if len(graph.Nodes) == 0 {
		return nil, nil
	}
	return &graph, nil
}

// stripFence removes a single leading/trailing ```json fenced block, if
// present, leaving the inner text untouched otherwise.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "```") {
		return text
	}
	segments := strings.SplitN(text, "```", 3)
	if len(segments) < 2 {
		return text
	}
	inner := strings.TrimPrefix(segments[1], "json")
	return strings.TrimSpace(inner)
}

// explainWorkflowResult asks the model for a short natural-language
// account of a finished run, given the original question and the final
// per-node progress. This stage is best-effort and off the critical path:
// its caller must not let a failure here affect the run's outcome.
func explainWorkflowResult(ctx context.Context, synth *llm.Transport, originalText string, graph *dag.Graph, progress dag.Progress) (string, error) {
	var b strings.Builder
	for _, n := range graph.Nodes {
		result, ok := progress[n.ID]
		switch {
		case ok && result.Success:
			fmt.Fprintf(&b, "- %s (%s): succeeded, output=%v\n", n.ID, n.Type, result.Data)
		case ok:
			fmt.Fprintf(&b, "- %s (%s): failed, error=%s\n", n.ID, n.Type, result.Error)
		default:
			fmt.Fprintf(&b, "- %s (%s): never ran\n", n.ID, n.Type)
		}
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "Summarize a workflow's execution for the user who asked the original question. Be brief."},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Question: %s\n\nExecution:\n%s", originalText, b.String())},
	}
	out, err := synth.Call(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}
