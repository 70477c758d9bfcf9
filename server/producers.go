package server

import (
	"context"

	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/llm"
	"github.com/dshills/agentgraph-go/stream"
)

// processWorkflow drives the workflow-mode chat path for one session: ask
// the synthesizer whether text needs a workflow, run one if so
// (publishing node results and, when it succeeds, an explanation), or
// answer directly if not. The stream ends with a complete event, or with
// an error event when synthesis, validation or the direct answer fails;
// the complete published after an error is dropped, since the error
// already terminated the session. It owns chatID's stream end to end.
func (s *Server) processWorkflow(ctx context.Context, chatID, text string) {
	s.publish(chatID, statusEvent("generating", "deciding whether a workflow is needed"))

	catalogue := s.Registry.Catalogue()
	graph, err := generateWorkflow(ctx, s.Transport, catalogue, text)
	if err != nil {
		s.publish(chatID, errorEvent(err.Error()))
		s.publish(chatID, completeEvent())
		return
	}

	if graph == nil {
		s.answerDirectly(ctx, chatID, text)
		return
	}

	if err := dag.Validate(graph, s.Registry); err != nil {
		s.publish(chatID, errorEvent(err.Error()))
		s.publish(chatID, completeEvent())
		return
	}

	s.publish(chatID, workflowEvent(graph))
	s.publish(chatID, statusEvent("executing", "running the workflow"))

	executor := dag.NewExecutor(s.Pool, s.Emitter)
	scheduler := dag.NewScheduler(graph, s.Registry, executor, s.Emitter, chatID)

	for ev := range scheduler.ExecuteStream(ctx, nil) {
		s.publish(chatID, nodeResultEvent(ev.NodeID, ev.Result.Success, string(ev.Result.Status), ev.Result.Data, ev.Result.Error))
	}

	explanation, err := explainWorkflowResult(ctx, s.Transport, text, graph, scheduler.Progress())
	if err == nil {
		s.publish(chatID, explanationEvent(explanation))
	}

	s.publish(chatID, completeEvent())
}

// answerDirectly handles the no-workflow-needed branch: ask the
// synthesizer transport for a plain answer to text.
func (s *Server) answerDirectly(ctx context.Context, chatID, text string) {
	s.publish(chatID, statusEvent("answering", "answering directly"))

	out, err := s.Transport.Call(ctx, []llm.Message{{Role: llm.RoleUser, Content: text}}, nil)
	if err != nil {
		s.publish(chatID, errorEvent(err.Error()))
		s.publish(chatID, completeEvent())
		return
	}

	s.publish(chatID, answerEvent(out.Text))
	s.publish(chatID, completeEvent())
}

// processAgent drives the agent-mode chat path: run the bounded ReAct
// controller and publish its final answer (or the error it returned).
func (s *Server) processAgent(ctx context.Context, chatID, text string) {
	s.publish(chatID, statusEvent("agent_processing", "running the agent"))

	answer, err := s.Controller.Run(ctx, text, chatID)
	if err != nil {
		s.publish(chatID, errorEvent(err.Error()))
		s.publish(chatID, completeEvent())
		return
	}

	s.publish(chatID, answerEvent(answer))
	s.publish(chatID, completeEvent())
}

// publish is a best-effort send: a session destroyed or already
// terminated by an earlier terminal event is not a producer error, just
// a dropped event.
func (s *Server) publish(chatID string, ev stream.Event) {
	_ = s.Streams.Publish(chatID, ev)
}
