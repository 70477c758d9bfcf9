package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/agentgraph-go/dag"
)

func TestToolCallSucceedsWithoutRetry(t *testing.T) {
	node := &MockNode{Responses: []map[string]interface{}{{"result": 1}}}
	tl := New(dag.Descriptor{Type: "t"}, node, 3, time.Millisecond, nil)

	out, err := tl.Call(context.Background(), "sess", map[string]interface{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["result"] != 1 {
		t.Fatalf("want result=1, got %v", out)
	}
	if node.CallCount() != 1 {
		t.Fatalf("want 1 call, got %d", node.CallCount())
	}
}

func TestToolCallExhaustsRetries(t *testing.T) {
	node := &MockNode{}
	node.Err = errors.New("transient")

	tl := New(dag.Descriptor{Type: "t"}, node, 3, time.Millisecond, nil)
	_, err := tl.Call(context.Background(), "sess", map[string]interface{}{})
	if err == nil {
		t.Fatalf("want error after exhausting retries against an always-failing node")
	}
	ee, ok := err.(*dag.EngineError)
	if !ok || ee.Code != CodeToolExecution {
		t.Fatalf("want CodeToolExecution, got %v", err)
	}
	if node.CallCount() != 3 {
		t.Fatalf("want 3 attempts, got %d", node.CallCount())
	}
}

func TestSetResolveUnknownTool(t *testing.T) {
	set := NewSet()
	if _, err := set.Resolve("missing"); err != ErrToolNotFound {
		t.Fatalf("want ErrToolNotFound, got %v", err)
	}
}
