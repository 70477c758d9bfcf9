package nodes

import (
	"context"
	"fmt"

	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/llm"
)

// ChatDescriptor describes the chat node: a single-turn call through the
// configured llm.Transport, with model selection and retry handled there.
var ChatDescriptor = dag.Descriptor{
	Type:        "chat",
	Name:        "Chat",
	Description: "Sends a prompt to the configured LLM and returns its text response.",
	Params: map[string]dag.ParamSchema{
		"prompt": {Type: "string", Required: true, Description: "user prompt"},
		"system": {Type: "string", Required: false, Description: "optional system prompt"},
	},
	Outputs: map[string]string{"text": "model response text"},
}

type Chat struct {
	Transport *llm.Transport
}

func NewChat(transport *llm.Transport) *Chat {
	return &Chat{Transport: transport}
}

func (c *Chat) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	prompt, ok := params["prompt"].(string)
	if !ok || prompt == "" {
		return nil, fmt.Errorf("prompt: missing required parameter")
	}

	var messages []llm.Message
	if sys, ok := params["system"].(string); ok && sys != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: sys})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	out, err := c.Transport.Call(ctx, messages, nil)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	return map[string]interface{}{"text": out.Text}, nil
}
