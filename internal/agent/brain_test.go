package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arvind/yantra/internal/llm"
	"github.com/arvind/yantra/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

// memHistory is an in-memory HistoryStore for orchestrator tests.
type memHistory struct {
	messages []llms.MessageContent
}

func (h *memHistory) AddMessage(chatID, role, content string) error {
	msgRole := llms.ChatMessageTypeHuman
	if role == "ai" {
		msgRole = llms.ChatMessageTypeAI
	}
	h.messages = append(h.messages, llms.MessageContent{
		Role:  msgRole,
		Parts: []llms.ContentPart{llms.TextPart(content)},
	})
	return nil
}

func (h *memHistory) GetHistory(chatID string, limit int) ([]llms.MessageContent, error) {
	return h.messages, nil
}

func newOrchestrator(model *llm.ScriptedModel, registry *tools.Registry) *Orchestrator {
	invoker := tools.NewInvoker(registry, model, nil, time.Second, nil)
	executor := &Executor{Model: model, Registry: registry, Invoker: invoker}
	return &Orchestrator{
		Model:      model,
		Registry:   registry,
		Invoker:    invoker,
		Executor:   executor,
		React:      &ReactAgent{Model: model, Registry: registry, Invoker: invoker, MaxIterations: 5},
		SWE:        &SWEAgent{Model: model, Executor: executor, RetryBudget: 2},
		Classifier: &Classifier{Model: model},
	}
}

func TestOrchestratorConversationalInput(t *testing.T) {
	model := llm.NewScriptedModel(
		llm.Reply{Text: "NOT_A_TASK"},
		llm.Reply{Text: "Doing well, thanks for asking!"},
	)
	o := newOrchestrator(model, tools.NewRegistry())

	out := o.Run(context.Background(), TaskInput{Description: "how are you?"})
	if !out.Success {
		t.Fatalf("expected success, got %+v", out.Metadata)
	}
	if out.Result != "Doing well, thanks for asking!" {
		t.Errorf("unexpected result: %q", out.Result)
	}
	if conv, _ := out.Metadata["conversational"].(bool); !conv {
		t.Error("conversational flag missing from metadata")
	}
}

func TestOrchestratorPresetPlanSkipsClassifier(t *testing.T) {
	model := llm.NewScriptedModel(
		llm.Reply{Text: "step output"},
		llm.Reply{Text: "summary"},
	)
	o := newOrchestrator(model, tools.NewRegistry())

	out := o.Run(context.Background(), TaskInput{
		Description: "task",
		Parameters:  map[string]any{"plan": []any{"do the one thing"}},
	})
	if !out.Success {
		t.Fatalf("expected success, got %+v", out.Metadata)
	}
	// First model call is the step prompt, not a classification.
	if got := model.Prompts[0]; got == "" || strings.Contains(got, "NOT_A_TASK") {
		t.Errorf("classifier should be skipped, first prompt:\n%s", got)
	}
}

func TestOrchestratorFlowOverride(t *testing.T) {
	model := llm.NewScriptedModel(
		llm.Reply{Text: "Thought: done already.\nFinal Answer: 42"},
	)
	o := newOrchestrator(model, tools.NewRegistry())

	out := o.Run(context.Background(), TaskInput{
		Description: "meaning of life",
		Parameters:  map[string]any{"flow": "react"},
	})
	if !out.Success || out.Result != "42" {
		t.Fatalf("react flow should drive the run, got %+v", out)
	}
}

func TestThinkRecordsHistory(t *testing.T) {
	model := llm.NewScriptedModel(
		llm.Reply{Text: "NOT_A_TASK"},
		llm.Reply{Text: "hello to you too"},
	)
	o := newOrchestrator(model, tools.NewRegistry())
	history := &memHistory{}
	o.History = history

	resp, err := o.Think(context.Background(), "chat-1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if resp != "hello to you too" {
		t.Errorf("unexpected response: %q", resp)
	}
	if len(history.messages) != 2 {
		t.Fatalf("expected human+ai turns recorded, got %d", len(history.messages))
	}
	if history.messages[0].Role != llms.ChatMessageTypeHuman || history.messages[1].Role != llms.ChatMessageTypeAI {
		t.Errorf("unexpected roles: %v, %v", history.messages[0].Role, history.messages[1].Role)
	}
}

func TestThinkSurfacesRunFailure(t *testing.T) {
	// Classifier transport failure fails the run.
	model := llm.NewScriptedModel(llm.Reply{Err: context.DeadlineExceeded})
	o := newOrchestrator(model, tools.NewRegistry())

	if _, err := o.Think(context.Background(), "chat-1", "do something"); err == nil {
		t.Fatal("run failure should surface as an error from Think")
	}
}
