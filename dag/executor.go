package dag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/agentgraph-go/emit"
)

// Executor invokes one node instance under a surrounding time and
// cancellation discipline, emitting the RUNNING -> RUNNING* ->
// {COMPLETED|FAILED} result sequence. It never returns an error itself —
// any node failure becomes a FAILED Result.
type Executor struct {
	pool    *WorkerPool
	emitter emit.Emitter
}

// NewExecutor builds an Executor over the given worker pool. A nil
// emitter is replaced with emit.NewNullEmitter().
func NewExecutor(pool *WorkerPool, emitter emit.Emitter) *Executor {
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &Executor{pool: pool, emitter: emitter}
}

// Run executes node for nodeID with resolvedParams, invoking onEvent for
// every RUNNING/COMPLETED/FAILED result in emission order. onEvent must
// not block for long; the scheduler uses it to update progress and
// publish to the stream multiplexer.
func (e *Executor) Run(ctx context.Context, nodeID, nodeType string, node Node, params map[string]interface{}, onEvent func(Result)) {
	start := time.Now()
	onEvent(Result{NodeID: nodeID, Status: StatusRunning, StartTime: start})

	var (
		final   map[string]interface{}
		execErr error
	)

	if streaming, ok := node.(StreamingNode); ok {
		final, execErr = e.runStreaming(ctx, nodeID, streaming, params, onEvent)
	} else {
		final, execErr = e.runTerminal(ctx, node, params)
	}

	end := time.Now()
	if execErr != nil {
		result := Result{
			NodeID:    nodeID,
			Success:   false,
			Status:    StatusFailed,
			Error:     execErr.Error(),
			StartTime: start,
			EndTime:   end,
		}
		e.emitter.Emit(emit.Event{RunID: nodeID, NodeID: nodeID, Msg: "node_end", Meta: map[string]interface{}{
			"status": "error", "node_type": nodeType, "duration": end.Sub(start),
		}})
		onEvent(result)
		return
	}

	e.emitter.Emit(emit.Event{RunID: nodeID, NodeID: nodeID, Msg: "node_end", Meta: map[string]interface{}{
		"status": "success", "node_type": nodeType, "duration": end.Sub(start),
	}})
	onEvent(Result{
		NodeID:    nodeID,
		Success:   true,
		Status:    StatusCompleted,
		Data:      final,
		StartTime: start,
		EndTime:   end,
	})
}

func (e *Executor) runTerminal(ctx context.Context, node Node, params map[string]interface{}) (data map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("node panicked: %v", r)
		}
	}()

	submitErr := e.pool.Submit(ctx, func() {
		data, err = node.Execute(ctx, params)
	})
	if submitErr != nil {
		return nil, submitErr
	}
	return data, err
}

func (e *Executor) runStreaming(ctx context.Context, nodeID string, node StreamingNode, params map[string]interface{}, onEvent func(Result)) (data map[string]interface{}, err error) {
	partial := make(chan map[string]interface{})
	done := make(chan struct{})
	var closeOnce sync.Once
	closePartial := func() { closeOnce.Do(func() { close(partial) }) }

	go func() {
		defer close(done)
		for p := range partial {
			onEvent(Result{NodeID: nodeID, Status: StatusRunning, Data: p})
		}
	}()

	// Guards against Submit returning before fn ran (context cancelled
	// while queued for a slot) or fn panicking before reaching its own
	// close(partial) — either way the drain goroutine above must still
	// see partial closed so <-done does not block forever.
	defer closePartial()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("node panicked: %v", r)
		}
	}()

	submitErr := e.pool.Submit(ctx, func() {
		defer closePartial()
		data, err = node.ExecuteStream(ctx, params, partial)
	})
	if submitErr != nil {
		closePartial()
	}
	<-done
	if submitErr != nil {
		return nil, submitErr
	}
	return data, err
}
