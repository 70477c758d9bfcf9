// Package agent implements the bounded ReAct controller that drives an
// LLM through think/act iterations against a fixed tool set.
package agent

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/emit"
	"github.com/dshills/agentgraph-go/llm"
	"github.com/dshills/agentgraph-go/tool"
)

// Classified agent error codes.
const (
	CodeToolNotFound   = "TOOL_NOT_FOUND"
	CodeAgentExhausted = "AGENT_EXHAUSTED"
	CodeParseFailure   = "PARSE_FAILURE"
)

// PublishFunc forwards one agent lifecycle event to a caller-chosen
// per-session transport — typically a stream.Multiplexer the server
// keeps keyed by session id — in addition to whatever Emitter records for
// observability. eventTag is one of the closed SSE tag set
// (agent_start, agent_thinking, action_start, action_complete,
// agent_complete, agent_error); data is the same Meta map passed to
// Emitter. A nil Publish is a no-op: callers that only need Emitter never
// set it.
type PublishFunc func(sessionID, eventTag string, data interface{})

// Controller runs one agent session's think/act loop. A Controller is
// shared across sessions; per-session state (history) is partitioned by
// session id under its own lock.
type Controller struct {
	Tools         *tool.Set
	Instruction   string
	Transport     *llm.Transport
	MaxIterations int
	MemorySize    int
	Cache         *Cache[string]
	Metrics       *Metrics
	Emitter       emit.Emitter
	Publish       PublishFunc

	historyMu sync.Mutex
	history   map[string][]string
}

// NewController wires a controller with the standard defaults
// (max_iterations=5, memory_size=10, a 100-entry/1h response cache).
// Returns errNilTools if tools is empty.
func NewController(tools *tool.Set, instruction string, transport *llm.Transport) (*Controller, error) {
	if tools == nil || len(tools.All()) == 0 {
		return nil, errNilTools
	}
	return &Controller{
		Tools:         tools,
		Instruction:   instruction,
		Transport:     transport,
		MaxIterations: 5,
		MemorySize:    10,
		Cache:         NewCache[string](100, time.Hour),
		Metrics:       NewMetrics(),
		Emitter:       emit.NewNullEmitter(),
		history:       make(map[string][]string),
	}, nil
}

type action struct {
	Action      string      `json:"action"`
	ActionInput interface{} `json:"action_input"`
}

// announce emits tag to Emitter and, if configured, to Publish — the
// single place an agent lifecycle event reaches both the process's
// observability sinks and a subscribed session stream.
func (c *Controller) announce(sessionID, tag string, meta map[string]interface{}) {
	c.Emitter.Emit(emit.Event{RunID: sessionID, Msg: tag, Meta: meta})
	if c.Publish != nil {
		c.Publish(sessionID, tag, meta)
	}
}

// Run drives the think/act loop for query under sessionID, returning the
// model's final answer text.
func (c *Controller) Run(ctx context.Context, query, sessionID string) (string, error) {
	c.announce(sessionID, "agent_start", map[string]interface{}{"query": query})

	scratchpad := ""
	history := c.windowedHistory(sessionID)

	for iteration := 1; iteration <= c.MaxIterations; iteration++ {
		c.announce(sessionID, "agent_thinking", map[string]interface{}{"iteration": iteration})

		prompt := buildPrompt(c.Instruction, c.Tools, query, history, scratchpad)

		responseText, err := c.callModel(ctx, sessionID, prompt)
		if err != nil {
			c.announce(sessionID, "agent_error", map[string]interface{}{"error": err.Error()})
			return "", err
		}

		act := parseAction(responseText)

		if act.Action == "Final Answer" {
			answer := fmt.Sprint(act.ActionInput)
			c.appendHistory(sessionID, query, answer)
			c.announce(sessionID, "agent_complete", map[string]interface{}{"answer": answer})
			return answer, nil
		}

		t, err := c.Tools.Resolve(act.Action)
		if err != nil {
			agentErr := &dag.EngineError{Message: fmt.Sprintf("unknown action %q", act.Action), Code: CodeToolNotFound}
			c.announce(sessionID, "agent_error", map[string]interface{}{"error": agentErr.Error()})
			return "", agentErr
		}

		c.announce(sessionID, "action_start", map[string]interface{}{"action": act.Action, "action_input": act.ActionInput})

		observation, err := t.Call(ctx, sessionID, toolInput(act.ActionInput))
		if err != nil {
			c.announce(sessionID, "agent_error", map[string]interface{}{"error": err.Error()})
			return "", err
		}
		c.Metrics.RecordToolUsage(act.Action)
		c.announce(sessionID, "action_complete", map[string]interface{}{"action": act.Action, "observation": observation})

		scratchpad += fmt.Sprintf("\nAction: %s\nAction Input: %v\nObservation: %v\n", act.Action, act.ActionInput, observation)
	}

	err := &dag.EngineError{Message: fmt.Sprintf("no final answer after %d iterations", c.MaxIterations), Code: CodeAgentExhausted}
	c.announce(sessionID, "agent_error", map[string]interface{}{"error": err.Error()})
	return "", err
}

// callModel consults the exact+semantic cache before calling the
// transport, and populates both tiers on a miss.
func (c *Controller) callModel(ctx context.Context, sessionID, prompt string) (string, error) {
	key := cacheKey(sessionID, prompt)
	semanticKey := semanticCacheKey(sessionID, prompt)

	if cached, hit, semantic := c.Cache.Get(key, semanticKey); hit {
		c.Metrics.RecordCacheAccess(true, semantic)
		tier := "exact"
		if semantic {
			tier = "semantic"
		}
		c.Emitter.Emit(emit.Event{RunID: sessionID, Msg: "cache_hit", Meta: map[string]interface{}{"tier": tier}})
		return cached, nil
	}
	c.Metrics.RecordCacheAccess(false, false)

	start := time.Now()
	out, err := c.Transport.Call(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, nil)
	c.Metrics.RecordCall(time.Since(start), err != nil)
	if err != nil {
		return "", err
	}

	c.Cache.Set(key, semanticKey, out.Text)
	return out.Text, nil
}

func cacheKey(sessionID, prompt string) string {
	sum := md5.Sum([]byte(sessionID + ":" + prompt))
	return hex.EncodeToString(sum[:])
}

// semanticCacheKey extracts the Question: and Action: lines from prompt
// so two prompts differing only in scratchpad history but asking the
// same question about the same action can share a cache entry.
func semanticCacheKey(sessionID, prompt string) string {
	parts := []string{sessionID}
	if q := extractLine(prompt, "Question:"); q != "" {
		parts = append(parts, q)
	}
	if a := extractLine(prompt, "Action:"); a != "" {
		parts = append(parts, a)
	}
	sum := md5.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

func extractLine(s, marker string) string {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return ""
	}
	rest := s[idx+len(marker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}

// parseAction strips a leading fenced code block if present and decodes
// the remainder as {action, action_input}, falling back to a synthesized
// Final Answer on any parse failure.
func parseAction(responseText string) action {
	text := responseText
	if strings.Contains(text, "```") {
		segments := strings.SplitN(text, "```", 3)
		if len(segments) >= 2 {
			text = segments[1]
			text = strings.TrimPrefix(text, "json")
		}
	}

	var act action
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &act); err != nil {
		return action{Action: "Final Answer", ActionInput: fmt.Sprintf("error parsing response: %v", err)}
	}
	return act
}

// toolInput normalizes action_input into the map dag.Node.Execute
// expects: pass a decoded object through unchanged, wrap anything else
// (typically a plain string) under "input".
func toolInput(actionInput interface{}) map[string]interface{} {
	if m, ok := actionInput.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{"input": actionInput}
}

func (c *Controller) windowedHistory(sessionID string) []string {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	h := c.history[sessionID]
	if len(h) <= c.MemorySize {
		out := make([]string, len(h))
		copy(out, h)
		return out
	}
	out := make([]string, c.MemorySize)
	copy(out, h[len(h)-c.MemorySize:])
	return out
}

func (c *Controller) appendHistory(sessionID, query, answer string) {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	c.history[sessionID] = append(c.history[sessionID], fmt.Sprintf("Q: %s\nA: %s", query, answer))
}

var errNilTools = errors.New("agent: at least one tool must be provided")
