// Package stream implements the per-session ordered event queue that
// decouples a producer task (workflow scheduler or agent controller) from
// an HTTP server-sent-events consumer that may attach after the producer
// has already begun publishing.
package stream

import "encoding/json"

// Event is the SSE envelope: event is one of the closed tag set
// (status, workflow, node_result, explanation, answer, complete, error,
// action_start, action_complete, tool_progress, tool_retry, agent_start,
// agent_complete, agent_error, agent_thinking); data is a raw string for
// status/explanation/answer and a JSON-encoded string for every other
// tag.
type Event struct {
	Event string
	Data  string
}

// terminal tags end a session's stream: once delivered, the subscriber
// loop stops and no further publish is accepted.
func (e Event) terminal() bool {
	return e.Event == "complete" || e.Event == "error"
}

// NewEvent builds an Event for tag: string data under status,
// explanation or answer passes through raw, and anything else (a string
// under any other tag included) is JSON-encoded — the single place that
// implements the envelope's "raw string for status/explanation/answer,
// JSON otherwise" rule, so every producer (the workflow scheduler's
// server package, the agent controller, the tool dispatcher) builds
// wire-identical events without importing one another.
func NewEvent(tag string, data interface{}) Event {
	if s, ok := data.(string); ok {
		switch tag {
		case "status", "explanation", "answer":
			return Event{Event: tag, Data: s}
		}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return Event{Event: "error", Data: err.Error()}
	}
	return Event{Event: tag, Data: string(encoded)}
}
