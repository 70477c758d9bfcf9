// Package emit provides pluggable observability sinks for workflow and
// agent execution: events fan out to logging, tracing, and metrics
// backends without the execution core depending on any of them directly.
package emit

// Event is one observability point: a node starting, a node finishing, an
// agent iteration, a cache hit. It is distinct from the SSE envelope the
// stream package delivers to clients — this is the ambient logging/trace
// shape, not the client-facing protocol.
type Event struct {
	// RunID identifies the workflow run or agent session that produced
	// this event. dag.Executor's node_end events carry the node ID here
	// instead, since the executor is not given the run's ID.
	RunID string

	// Step is a sequential counter within the run. No caller in this
	// module sets it, so it is zero on every event the module produces.
	Step int

	// NodeID identifies the node or tool that produced the event. Empty
	// for run-level events (start, complete, error).
	NodeID string

	// Msg is a short, stable event name: "node_end", "workflow_complete",
	// "agent_thinking", "cache_hit", "tool_retry", and so on.
	Msg string

	// Meta carries event-specific structured data: duration (a
	// time.Duration), status, node_type, error, cache tier, retry attempt.
	Meta map[string]interface{}
}
