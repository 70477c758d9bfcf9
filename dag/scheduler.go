package dag

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/agentgraph-go/emit"
)

// NodeEvent is one (node_id, Result) pair as produced by the stream form
// of Execute.
type NodeEvent struct {
	NodeID string
	Result Result
}

// Scheduler runs one workflow instance: dependency-driven concurrent
// launch of node processing tasks, with cooperative pause and
// cancellation. A Scheduler is single-use — build a new one per run.
type Scheduler struct {
	graph    *Graph
	registry *Registry
	executor *Executor
	emitter  emit.Emitter
	runID    string

	mu          sync.Mutex
	cond        *sync.Cond
	progress    Progress
	status      WorkflowStatus
	launched    map[string]bool
	deps        map[string][]string
	wg          sync.WaitGroup
	resolverCtx map[string]interface{}
}

// NewScheduler builds a scheduler for one run of graph, using reg to
// construct node instances and exec to invoke them. runID identifies the
// run for observability events.
func NewScheduler(graph *Graph, reg *Registry, exec *Executor, emitter emit.Emitter, runID string) *Scheduler {
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	s := &Scheduler{
		graph:    graph,
		registry: reg,
		executor: exec,
		emitter:  emitter,
		runID:    runID,
		progress: make(Progress),
		status:   WorkflowPending,
		launched: make(map[string]bool),
		deps:     make(map[string][]string),
	}
	s.cond = sync.NewCond(&s.mu)
	for _, e := range graph.Edges {
		s.deps[e.To] = append(s.deps[e.To], e.From)
	}
	return s
}

// Progress returns a snapshot of the current per-node results.
func (s *Scheduler) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Clone()
}

// Status returns the current workflow status.
func (s *Scheduler) Status() WorkflowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Pause suppresses new task launches; in-flight node bodies finish
// naturally. A no-op once the workflow has reached a terminal status.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = WorkflowPaused
}

// Resume clears a pause, waking any processing tasks spin-waiting on it.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != WorkflowPaused {
		return
	}
	s.status = WorkflowRunning
	s.cond.Broadcast()
}

// Cancel transitions the workflow to CANCELLED immediately. Pending
// launches are suppressed: a processing task that has not yet invoked
// its node returns without a result. Cancel does not cancel the context
// passed to node bodies already running, so those run to completion.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = WorkflowCancelled
	s.cond.Broadcast()
}

// Execute runs the graph to completion and returns the final progress
// map (the "collect" form). resolverCtx is passed straight through to
// the parameter resolver as its context argument: a top-level workflow
// run conventionally nests its caller-supplied params under a "global"
// key (so node params read them as $global.*), while a loop node passes
// its per-iteration variable directly at the top level (so the subgraph
// reads it as $<item_var>.*) — the scheduler itself is agnostic to which.
func (s *Scheduler) Execute(ctx context.Context, resolverCtx map[string]interface{}) (Progress, WorkflowStatus) {
	s.run(ctx, resolverCtx, func(NodeEvent) {})
	return s.Progress(), s.Status()
}

// ExecuteStream runs the graph and yields (node_id, Result) pairs in
// publication order on the returned channel, which is closed once the
// run reaches a terminal workflow status. See Execute for resolverCtx.
func (s *Scheduler) ExecuteStream(ctx context.Context, resolverCtx map[string]interface{}) <-chan NodeEvent {
	out := make(chan NodeEvent, 64)
	go func() {
		defer close(out)
		s.run(ctx, resolverCtx, func(ev NodeEvent) { out <- ev })
	}()
	return out
}

func (s *Scheduler) run(ctx context.Context, resolverCtx map[string]interface{}, publish func(NodeEvent)) {
	s.mu.Lock()
	s.status = WorkflowRunning
	s.resolverCtx = resolverCtx
	s.mu.Unlock()

	startSet := s.startSet()
	for _, id := range startSet {
		s.launchLocked(ctx, id, publish)
	}

	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == WorkflowCancelled {
		return
	}
	if s.allSucceeded() {
		s.status = WorkflowCompleted
	} else {
		s.status = WorkflowFailed
	}
	s.emitter.Emit(emit.Event{RunID: s.runID, Msg: "workflow_complete", Meta: map[string]interface{}{"status": string(s.status)}})
}

// startSet is every node with no predecessors, which also covers nodes
// with no incident edges at all (isolated nodes).
func (s *Scheduler) startSet() []string {
	var out []string
	for _, n := range s.graph.Nodes {
		if len(s.deps[n.ID]) == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}

// launchLocked marks id launched and starts its processing task as a
// goroutine tracked by s.wg. Safe to call concurrently; a node is never
// launched twice.
func (s *Scheduler) launchLocked(ctx context.Context, id string, publish func(NodeEvent)) {
	s.mu.Lock()
	if s.launched[id] {
		s.mu.Unlock()
		return
	}
	s.launched[id] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(ctx, id, publish)
	}()
}

func (s *Scheduler) process(ctx context.Context, id string, publish func(NodeEvent)) {
	if s.Status() == WorkflowCancelled {
		return
	}

	s.mu.Lock()
	for s.status == WorkflowPaused {
		s.cond.Wait()
	}
	cancelled := s.status == WorkflowCancelled
	s.mu.Unlock()
	if cancelled {
		return
	}

	spec := s.specFor(id)

	if depErr := s.checkDeps(id); depErr != nil {
		s.terminal(id, Result{NodeID: id, Success: false, Status: StatusFailed, Error: depErr.Error(), StartTime: time.Now(), EndTime: time.Now()}, publish)
		return
	}

	node, err := s.registry.New(spec.Type)
	if err != nil {
		s.terminal(id, Result{NodeID: id, Success: false, Status: StatusFailed, Error: err.Error(), StartTime: time.Now(), EndTime: time.Now()}, publish)
		return
	}

	s.mu.Lock()
	resolverCtx := s.resolverCtx
	s.mu.Unlock()
	params, err := ResolveParams(spec.Params, s.Progress(), resolverCtx)
	if err != nil {
		s.terminal(id, Result{NodeID: id, Success: false, Status: StatusFailed, Error: err.Error(), StartTime: time.Now(), EndTime: time.Now()}, publish)
		return
	}

	s.executor.Run(ctx, id, spec.Type, node, params, func(r Result) {
		r.NodeID = id
		s.setProgress(id, r)
		publish(NodeEvent{NodeID: id, Result: r})
		if r.Status == StatusCompleted || r.Status == StatusFailed {
			s.fanOut(ctx, id, publish)
		}
	})
}

// checkDeps reports ErrDependencyFailed if any predecessor of id is
// missing or unsuccessful in progress.
func (s *Scheduler) checkDeps(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dep := range s.deps[id] {
		result, ok := s.progress[dep]
		if !ok || !result.Success {
			return ErrDependencyFailed
		}
	}
	return nil
}

func (s *Scheduler) terminal(id string, r Result, publish func(NodeEvent)) {
	s.setProgress(id, r)
	publish(NodeEvent{NodeID: id, Result: r})
	s.fanOut(context.Background(), id, publish)
}

func (s *Scheduler) setProgress(id string, r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[id] = r
}

// fanOut launches every downstream node of id whose predecessors all now
// carry a terminal result (success or failure) in progress. A predecessor
// that failed still unblocks the launch so the downstream node's own
// dependency check can mark it FAILED, rather than leaving it stuck
// PENDING forever.
func (s *Scheduler) fanOut(ctx context.Context, completedID string, publish func(NodeEvent)) {
	for _, n := range s.graph.Nodes {
		isDownstream := false
		for _, dep := range s.deps[n.ID] {
			if dep == completedID {
				isDownstream = true
				break
			}
		}
		if !isDownstream {
			continue
		}
		if s.allDepsTerminal(n.ID) {
			s.launchLocked(ctx, n.ID, publish)
		}
	}
}

func (s *Scheduler) allDepsTerminal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dep := range s.deps[id] {
		if _, ok := s.progress[dep]; !ok {
			return false
		}
	}
	return true
}

func (s *Scheduler) allSucceeded() bool {
	for _, n := range s.graph.Nodes {
		r, ok := s.progress[n.ID]
		if !ok || !r.Success {
			return false
		}
	}
	return true
}

func (s *Scheduler) specFor(id string) NodeSpec {
	for _, n := range s.graph.Nodes {
		if n.ID == id {
			return n
		}
	}
	return NodeSpec{}
}
