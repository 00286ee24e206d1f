package llm

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Reply is one scripted model turn for tests.
type Reply struct {
	Text      string
	ToolCalls []llms.ToolCall
	Err       error
}

// ScriptedModel is a deterministic llms.Model for tests. It returns its
// replies in order and records every prompt it was asked, so tests can
// assert on prompt construction without a live model.
type ScriptedModel struct {
	mu      sync.Mutex
	Replies []Reply
	next    int

	// Prompts holds the text of the last human message of each call.
	Prompts []string
	// Systems holds the system message of each call, "" when absent.
	Systems []string
}

var _ llms.Model = (*ScriptedModel)(nil)

func NewScriptedModel(replies ...Reply) *ScriptedModel {
	return &ScriptedModel{Replies: replies}
}

func (m *ScriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, lastText(messages, llms.ChatMessageTypeHuman))
	m.Systems = append(m.Systems, lastText(messages, llms.ChatMessageTypeSystem))

	if m.next >= len(m.Replies) {
		// Out of script: behave like a model that gives up politely.
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: ""}}}, nil
	}
	r := m.Replies[m.next]
	m.next++

	if r.Err != nil {
		return nil, r.Err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:   r.Text,
		ToolCalls: r.ToolCalls,
	}}}, nil
}

// Call implements the deprecated half of llms.Model.
func (m *ScriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// CallCount reports how many times the model was consulted.
func (m *ScriptedModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

func lastText(messages []llms.MessageContent, role llms.ChatMessageType) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != role {
			continue
		}
		for _, p := range messages[i].Parts {
			if t, ok := p.(llms.TextContent); ok {
				return t.Text
			}
		}
	}
	return ""
}
