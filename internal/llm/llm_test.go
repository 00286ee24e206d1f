package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

func TestCompleteWrapsTransportFailure(t *testing.T) {
	model := NewScriptedModel(Reply{Err: errors.New("dial tcp: refused")})

	_, err := Complete(context.Background(), model, "", "hello")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestCompleteCarriesSystemPrompt(t *testing.T) {
	model := NewScriptedModel(Reply{Text: "answer"})

	out, err := Complete(context.Background(), model, "be terse", "question")
	if err != nil {
		t.Fatal(err)
	}
	if out != "answer" {
		t.Errorf("unexpected output: %q", out)
	}
	if model.Systems[0] != "be terse" {
		t.Errorf("system prompt not forwarded: %q", model.Systems[0])
	}
	if model.Prompts[0] != "question" {
		t.Errorf("human prompt not forwarded: %q", model.Prompts[0])
	}
}

func TestCompleteWithToolsReturnsFirstChoice(t *testing.T) {
	model := NewScriptedModel(Reply{ToolCalls: []llms.ToolCall{{
		Type:         "function",
		FunctionCall: &llms.FunctionCall{Name: "search", Arguments: `{"query":"x"}`},
	}}})

	choice, err := CompleteWithTools(context.Background(), model, []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart("find x")}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(choice.ToolCalls) != 1 || choice.ToolCalls[0].FunctionCall.Name != "search" {
		t.Errorf("unexpected choice: %+v", choice)
	}
}
