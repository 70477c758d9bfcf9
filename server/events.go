package server

import (
	"github.com/dshills/agentgraph-go/stream"
)

// Event type tags for the SSE protocol, matching the dispatch the
// frontend switches on for each chat stream.
const (
	eventStatus      = "status"
	eventWorkflow    = "workflow"
	eventNodeResult  = "node_result"
	eventAnswer      = "answer"
	eventExplanation = "explanation"
	eventComplete    = "complete"
	eventError       = "error"
)

// statusEvent reports a progress label. status is kept as a parameter for
// call-site readability only; the wire contract's "status" tag carries
// message as a raw string and nothing else (matching the original's
// create_status_event, which likewise discards its status argument on
// the wire).
func statusEvent(status, message string) stream.Event {
	return stream.NewEvent(eventStatus, message)
}

func workflowEvent(graph interface{}) stream.Event {
	return stream.NewEvent(eventWorkflow, graph)
}

// nodeResultEvent builds the wire node result envelope
// { node_id, success, status, data|null, error|null }.
func nodeResultEvent(nodeID string, success bool, status string, data map[string]interface{}, errMsg string) stream.Event {
	payload := map[string]interface{}{
		"node_id": nodeID,
		"success": success,
		"status":  status,
		"data":    nil,
		"error":   nil,
	}
	if success {
		payload["data"] = data
	} else {
		payload["error"] = errMsg
	}
	return stream.NewEvent(eventNodeResult, payload)
}

func answerEvent(text string) stream.Event {
	return stream.NewEvent(eventAnswer, text)
}

func explanationEvent(text string) stream.Event {
	return stream.NewEvent(eventExplanation, text)
}

func completeEvent() stream.Event {
	return stream.NewEvent(eventComplete, "done")
}

func errorEvent(message string) stream.Event {
	return stream.NewEvent(eventError, message)
}
