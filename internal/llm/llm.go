package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// The orchestrator talks to the model backend through langchaingo's
// llms.Model. These helpers cover the two call shapes used everywhere:
// plain text completion and a single function-calling turn.

var (
	// ErrModelUnavailable wraps transport or provider failures.
	ErrModelUnavailable = errors.New("model backend unavailable")
	// ErrMalformedOutput marks a response the caller could not parse.
	ErrMalformedOutput = errors.New("malformed model output")
)

// Complete runs one text completion with an optional system prompt.
func Complete(ctx context.Context, model llms.Model, systemPrompt, prompt string) (string, error) {
	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	})

	resp, err := model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	return resp.Choices[0].Content, nil
}

// CompleteWithTools runs one function-calling turn and returns the
// first choice. The caller decides whether a tool call or plain text
// came back.
func CompleteWithTools(ctx context.Context, model llms.Model, messages []llms.MessageContent, tools []llms.Tool) (*llms.ContentChoice, error) {
	resp, err := model.GenerateContent(ctx, messages, llms.WithTools(tools))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	return resp.Choices[0], nil
}
