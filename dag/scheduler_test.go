package dag

import (
	"context"
	"fmt"
	"testing"

	"github.com/dshills/agentgraph-go/emit"
)

func newTestRegistry() *Registry {
	reg := NewRegistry()
	_ = reg.Register(Descriptor{Type: "pass"}, func() Node {
		return NodeFunc(func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"ok": true}, nil
		})
	})
	_ = reg.Register(Descriptor{Type: "fail"}, func() Node {
		return NodeFunc(func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			return nil, fmt.Errorf("intentional failure")
		})
	})
	return reg
}

func TestSchedulerDiamondCompletes(t *testing.T) {
	g := &Graph{
		Nodes: []NodeSpec{
			{ID: "a", Type: "pass"}, {ID: "b", Type: "pass"},
			{ID: "c", Type: "pass"}, {ID: "d", Type: "pass"},
		},
		Edges: []Edge{{From: "a", To: "b"}, {From: "a", To: "c"}, {From: "b", To: "d"}, {From: "c", To: "d"}},
	}
	reg := newTestRegistry()
	pool := NewWorkerPool(4)
	executor := NewExecutor(pool, emit.NewNullEmitter())
	scheduler := NewScheduler(g, reg, executor, emit.NewNullEmitter(), "diamond")

	progress, status := scheduler.Execute(context.Background(), nil)
	if status != WorkflowCompleted {
		t.Fatalf("want WorkflowCompleted, got %s", status)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if !progress[id].Success {
			t.Fatalf("node %s: want success, got %+v", id, progress[id])
		}
	}
}

func TestSchedulerPartialFailurePropagates(t *testing.T) {
	g := &Graph{
		Nodes: []NodeSpec{
			{ID: "a", Type: "fail"}, {ID: "b", Type: "pass"}, {ID: "downstream", Type: "pass"},
		},
		Edges: []Edge{{From: "a", To: "downstream"}, {From: "b", To: "downstream"}},
	}
	reg := newTestRegistry()
	pool := NewWorkerPool(4)
	executor := NewExecutor(pool, emit.NewNullEmitter())
	scheduler := NewScheduler(g, reg, executor, emit.NewNullEmitter(), "partial-fail")

	progress, status := scheduler.Execute(context.Background(), nil)
	if status != WorkflowFailed {
		t.Fatalf("want WorkflowFailed, got %s", status)
	}
	if progress["a"].Success {
		t.Fatalf("node a should have failed")
	}
	if !progress["b"].Success {
		t.Fatalf("node b should have succeeded independently of a")
	}
	downstream := progress["downstream"]
	if downstream.Success {
		t.Fatalf("downstream should fail because one predecessor failed")
	}
	if downstream.Error == "" {
		t.Fatalf("downstream should carry a dependency-failure error, got empty")
	}
}

func TestSchedulerIsolatedNodeRuns(t *testing.T) {
	g := &Graph{Nodes: []NodeSpec{{ID: "solo", Type: "pass"}}}
	reg := newTestRegistry()
	pool := NewWorkerPool(1)
	executor := NewExecutor(pool, emit.NewNullEmitter())
	scheduler := NewScheduler(g, reg, executor, emit.NewNullEmitter(), "solo")

	progress, status := scheduler.Execute(context.Background(), nil)
	if status != WorkflowCompleted || !progress["solo"].Success {
		t.Fatalf("want completed success, got status=%s progress=%+v", status, progress)
	}
}
