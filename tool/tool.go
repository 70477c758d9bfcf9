// Package tool wraps a DAG node as a retrying callable the agent
// controller can invoke by name.
package tool

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/emit"
)

// CodeToolExecution is the classified code on a Tool's terminal failure,
// raised once every retry attempt has been exhausted.
const CodeToolExecution = "TOOL_EXECUTION"

// PublishFunc forwards one tool lifecycle event (tool_progress,
// tool_retry) to a caller-chosen per-session transport — typically a
// stream.Multiplexer the server keeps keyed by session id — in addition
// to whatever Emitter records for observability. A nil Publish is a
// no-op.
type PublishFunc func(sessionID, eventTag string, data interface{})

// Tool is one node exposed to the agent loop, with its own retry
// envelope independent of anything the DAG scheduler does.
type Tool struct {
	Name        string
	Description string
	Params      map[string]dag.ParamSchema
	Publish     PublishFunc

	node       dag.Node
	maxRetries int
	retryDelay time.Duration
	emitter    emit.Emitter
}

// New wraps node as tool name/description, making at most maxRetries
// attempts in all, with retryDelay between them. maxRetries <= 0 means 1
// (no retry). A nil emitter is replaced with emit.NewNullEmitter().
func New(desc dag.Descriptor, node dag.Node, maxRetries int, retryDelay time.Duration, emitter emit.Emitter) *Tool {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &Tool{
		Name:        desc.Type,
		Description: desc.Description,
		Params:      desc.Params,
		node:        node,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
		emitter:     emitter,
	}
}

// announce emits tag to Emitter and, if configured, to Publish — the
// single place a tool lifecycle event reaches both the process's
// observability sinks and a subscribed session stream.
func (t *Tool) announce(sessionID, tag string, meta map[string]interface{}) {
	t.emitter.Emit(emit.Event{RunID: sessionID, Msg: tag, Meta: meta})
	if t.Publish != nil {
		t.Publish(sessionID, tag, meta)
	}
}

// Call invokes the wrapped node, retrying on error. sessionID tags the
// tool_progress/tool_retry events emitted for each attempt.
func (t *Tool) Call(ctx context.Context, sessionID string, input map[string]interface{}) (map[string]interface{}, error) {
	var lastErr error
	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		t.announce(sessionID, "tool_progress", map[string]interface{}{
			"tool": t.Name, "attempt": attempt, "max_retries": t.maxRetries,
		})

		out, err := t.node.Execute(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		t.announce(sessionID, "tool_retry", map[string]interface{}{
			"tool": t.Name, "attempt": attempt, "max_retries": t.maxRetries, "error": err.Error(),
		})

		if attempt < t.maxRetries {
			select {
			case <-time.After(t.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, &dag.EngineError{Message: lastErr.Error(), Code: CodeToolExecution}
}

// ErrToolNotFound is returned by a Set's Resolve for an unknown name.
var ErrToolNotFound = errors.New("tool not found")

// Set is the collection of tools available to one agent session.
type Set struct {
	tools map[string]*Tool
}

// NewSet builds a Set from tools, keyed by Tool.Name.
func NewSet(tools ...*Tool) *Set {
	s := &Set{tools: make(map[string]*Tool, len(tools))}
	for _, t := range tools {
		s.tools[t.Name] = t
	}
	return s
}

// Resolve looks up name, returning ErrToolNotFound if absent.
func (s *Set) Resolve(name string) (*Tool, error) {
	t, ok := s.tools[name]
	if !ok {
		return nil, ErrToolNotFound
	}
	return t, nil
}

// All returns every tool in the set, for prompt assembly.
func (s *Set) All() []*Tool {
	out := make([]*Tool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t)
	}
	return out
}
