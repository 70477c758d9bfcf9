package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/agentgraph-go/dag"
)

// maxPromptChars is the point past which user-role content is truncated
// before any provider ever sees it, independent of which model answers.
const maxPromptChars = 100000

// Transport wraps a primary ChatModel and an optional long-context
// fallback with the retry policy, per-attempt deadline, and truncation
// guard every node and agent iteration goes through. Model selection and
// retry are transport concerns; adapters stay provider-only.
type Transport struct {
	Primary                ChatModel
	LongContext            ChatModel
	ContextLengthThreshold int
	Timeout                time.Duration
	Retry                  dag.RetryPolicy
}

// NewTransport builds a Transport with sensible defaults: a 3-attempt
// retry with jittered exponential backoff (1s base, 10s cap) and a 30s
// per-attempt timeout, overridable by setting the returned struct's
// fields directly.
func NewTransport(primary ChatModel) *Transport {
	return &Transport{
		Primary: primary,
		Timeout: 30 * time.Second,
		Retry: dag.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
			Retryable:   func(error) bool { return true },
		},
	}
}

// Call sends messages through the appropriate model (switching to
// LongContext when the total prompt length exceeds
// ContextLengthThreshold and a long-context model is configured),
// enforcing Timeout per attempt and retrying per Retry.
func (t *Transport) Call(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error) {
	messages = truncateOversize(messages)
	model := t.selectModel(messages)

	var lastErr error
	for attempt := 1; attempt <= t.Retry.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, t.timeout())
		out, err := model.Chat(callCtx, messages, tools)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !t.Retry.ShouldRetry(attempt-1, err) {
			break
		}
		select {
		case <-time.After(t.Retry.Backoff(attempt - 1)):
		case <-ctx.Done():
			return ChatOut{}, ctx.Err()
		}
	}
	return ChatOut{}, fmt.Errorf("llm call failed after %d attempts: %w", t.Retry.MaxAttempts, lastErr)
}

func (t *Transport) timeout() time.Duration {
	if t.Timeout <= 0 {
		return 30 * time.Second
	}
	return t.Timeout
}

func (t *Transport) selectModel(messages []Message) ChatModel {
	if t.LongContext == nil || t.ContextLengthThreshold <= 0 {
		return t.Primary
	}
	if totalChars(messages) > t.ContextLengthThreshold {
		return t.LongContext
	}
	return t.Primary
}

func totalChars(messages []Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n
}

// truncateOversize proportionally shortens user-role content once the
// combined prompt exceeds maxPromptChars, preserving at least half of
// each user message rather than dropping any message entirely.
func truncateOversize(messages []Message) []Message {
	if totalChars(messages) <= maxPromptChars {
		return messages
	}

	var userChars int
	for _, m := range messages {
		if m.Role == RoleUser {
			userChars += len(m.Content)
		}
	}
	if userChars == 0 {
		return messages
	}

	overage := totalChars(messages) - maxPromptChars
	ratio := 1 - float64(overage)/float64(userChars)
	if ratio < 0.5 {
		ratio = 0.5
	}

	out := make([]Message, len(messages))
	copy(out, messages)
	for i, m := range out {
		if m.Role != RoleUser {
			continue
		}
		keep := int(float64(len(m.Content)) * ratio)
		if keep < len(m.Content) {
			out[i].Content = m.Content[:keep]
		}
	}
	return out
}
