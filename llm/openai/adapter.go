// Package openai adapts the OpenAI chat completions API to llm.ChatModel.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/agentgraph-go/llm"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// ChatModel implements llm.ChatModel against the OpenAI API. Retries and
// timeouts are handled one layer up, by llm.Transport; this type only
// knows how to make one call.
type ChatModel struct {
	apiKey    string
	modelName string
	client    *openaisdk.Client
}

// NewChatModel builds a ChatModel for modelName, defaulting to "gpt-4o"
// when modelName is empty.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	client := openaisdk.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{apiKey: apiKey, modelName: modelName, client: &client}
}

func (m *ChatModel) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (llm.ChatOut, error) {
	if m.apiKey == "" {
		return llm.ChatOut{}, errors.New("openai: API key is required")
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(m.modelName),
		Messages: convertMessages(messages),
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("openai: %w", err)
	}
	return convertResponse(resp), nil
}

func convertMessages(messages []llm.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			out[i] = openaisdk.SystemMessage(msg.Content)
		case llm.RoleAssistant:
			out[i] = openaisdk.AssistantMessage(msg.Content)
		default:
			out[i] = openaisdk.UserMessage(msg.Content)
		}
	}
	return out
}

func convertTools(tools []llm.ToolSpec) []openaisdk.ChatCompletionToolParam {
	out := make([]openaisdk.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		out[i] = openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openaisdk.String(t.Description),
				Parameters:  shared.FunctionParameters(t.Schema),
			},
		}
	}
	return out
}

func convertResponse(resp *openaisdk.ChatCompletion) llm.ChatOut {
	var out llm.ChatOut
	if len(resp.Choices) == 0 {
		return out
	}
	msg := resp.Choices[0].Message
	out.Text = msg.Content
	if len(msg.ToolCalls) == 0 {
		return out
	}
	out.ToolCalls = make([]llm.ToolCall, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		out.ToolCalls[i] = llm.ToolCall{
			Name:  tc.Function.Name,
			Input: parseToolInput(tc.Function.Arguments),
		}
	}
	return out
}

func parseToolInput(rawJSON string) map[string]interface{} {
	if rawJSON == "" {
		return nil
	}
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(rawJSON), &result); err != nil {
		return map[string]interface{}{"_raw": rawJSON}
	}
	return result
}
