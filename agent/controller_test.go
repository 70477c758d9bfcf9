package agent

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/llm"
	"github.com/dshills/agentgraph-go/tool"
)

type calcNode struct{}

func (calcNode) Execute(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"result": 4}, nil
}

func newCalcTool() *tool.Tool {
	desc := dag.Descriptor{
		Type:        "calculator",
		Description: "adds two numbers",
		Params:      map[string]dag.ParamSchema{"a": {Type: "number"}, "b": {Type: "number"}},
	}
	return tool.New(desc, calcNode{}, 1, time.Millisecond, nil)
}

func TestControllerHappyPathToolThenFinalAnswer(t *testing.T) {
	mock := &llm.MockChatModel{Responses: []llm.ChatOut{
		{Text: `{"action": "calculator", "action_input": {"a": 2, "b": 2}}`},
		{Text: `{"action": "Final Answer", "action_input": "The answer is 4"}`},
	}}
	transport := llm.NewTransport(mock)
	tools := tool.NewSet(newCalcTool())

	controller, err := NewController(tools, "answer using tools", transport)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	answer, err := controller.Run(context.Background(), "what is 2+2?", "session-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if answer != "The answer is 4" {
		t.Fatalf("want final answer text, got %q", answer)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("want 2 model calls, got %d", mock.CallCount())
	}
}

func TestControllerUnknownToolReturnsClassifiedError(t *testing.T) {
	mock := &llm.MockChatModel{Responses: []llm.ChatOut{
		{Text: `{"action": "nonexistent_tool", "action_input": {}}`},
	}}
	transport := llm.NewTransport(mock)
	tools := tool.NewSet(newCalcTool())

	controller, err := NewController(tools, "", transport)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	_, err = controller.Run(context.Background(), "do something", "session-2")
	ee, ok := err.(*dag.EngineError)
	if !ok || ee.Code != CodeToolNotFound {
		t.Fatalf("want CodeToolNotFound, got %v", err)
	}
}

func TestControllerExhaustsIterations(t *testing.T) {
	responses := make([]llm.ChatOut, 0, 5)
	for i := 0; i < 5; i++ {
		responses = append(responses, llm.ChatOut{Text: `{"action": "calculator", "action_input": {"a": 1, "b": 1}}`})
	}
	mock := &llm.MockChatModel{Responses: responses}
	transport := llm.NewTransport(mock)
	tools := tool.NewSet(newCalcTool())

	controller, err := NewController(tools, "", transport)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	controller.MaxIterations = 5

	_, err = controller.Run(context.Background(), "loop forever", "session-3")
	ee, ok := err.(*dag.EngineError)
	if !ok || ee.Code != CodeAgentExhausted {
		t.Fatalf("want CodeAgentExhausted, got %v", err)
	}
}

func TestNewControllerRejectsEmptyToolSet(t *testing.T) {
	transport := llm.NewTransport(&llm.MockChatModel{})
	if _, err := NewController(tool.NewSet(), "", transport); err == nil {
		t.Fatalf("want error for empty tool set")
	}
}
