package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/arvind/yantra/internal/llm"
	"github.com/arvind/yantra/internal/observability"
	"github.com/arvind/yantra/internal/tools"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

// Brain defines the core intelligence interface consumed by gateways
// and the scheduler.
type Brain interface {
	Think(ctx context.Context, chatID string, input string) (string, error)
}

// HistoryStore persists conversation turns across prompts in one chat.
type HistoryStore interface {
	AddMessage(chatID string, role string, content string) error
	GetHistory(chatID string, limit int) ([]llms.MessageContent, error)
}

// RunStore persists run-level audit records.
type RunStore interface {
	CreateRun(runID, chatID, description string) error
	FinishRun(runID string, success bool, result string) error
}

// Orchestrator is the top-level agent: it classifies the input, picks
// a driver (conversational answer, planned execution, ReAct loop or
// the SWE workflow) and owns all run-scoped state.
type Orchestrator struct {
	Model      llms.Model
	Registry   *tools.Registry
	Invoker    *tools.Invoker
	Executor   *Executor
	React      *ReactAgent
	SWE        *SWEAgent
	Classifier *Classifier
	History    HistoryStore
	Runs       RunStore
	Prompts    *PromptManager
	Logger     *observability.Logger
}

// Run executes one TaskInput to completion. Every invocation gets its
// own run id, plan, memory and trace; nothing is shared across
// concurrent runs except the read-mostly registry.
func (o *Orchestrator) Run(ctx context.Context, in TaskInput) TaskOutput {
	runID := uuid.NewString()
	chatID := observability.ChatIDFrom(ctx)

	if o.Runs != nil {
		_ = o.Runs.CreateRun(runID, chatID, in.Description)
	}

	out := o.run(ctx, runID, chatID, in)

	if o.Runs != nil {
		_ = o.Runs.FinishRun(runID, out.Success, truncate(out.Result, 4000))
	}
	return out
}

func (o *Orchestrator) run(ctx context.Context, runID, chatID string, in TaskInput) TaskOutput {
	switch in.Flow() {
	case "react":
		return o.React.Run(ctx, runID, in.Description)
	case "swe":
		return o.SWE.Run(ctx, runID, in.Description)
	}

	plan := in.PresetPlan()
	if plan == nil {
		observability.SetStatus(observability.RolePlanning, in.Description)
		isTask, inferred, err := o.Classifier.Classify(ctx, in.Description)
		if err != nil {
			return TaskOutput{Success: false, Result: "", Metadata: map[string]any{"run_id": runID, "error": err.Error()}}
		}
		if o.Logger != nil {
			o.Logger.LogClassify(chatID, runID, isTask, len(inferred))
		}
		if !isTask {
			return o.converse(ctx, runID, chatID, in.Description)
		}
		plan = inferred
	}

	if o.Logger != nil {
		o.Logger.LogPlan(chatID, runID, plan)
	}

	return o.Executor.Execute(ctx, runID, in.Description, plan, ExecOptions{
		MemoryEnabled:  in.MemoryEnabled(),
		StoreArtifacts: in.StoreArtifacts(),
		OutputPath:     in.OutputPath,
	})
}

// converse answers a non-task input directly, with recent history for
// context when a store is wired.
func (o *Orchestrator) converse(ctx context.Context, runID, chatID, input string) TaskOutput {
	persona := conversationalSystemPrompt
	if o.Prompts != nil {
		if p, err := o.Prompts.GetPersonaPrompt(); err == nil && p != "" {
			persona = p
		}
	}

	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(persona)}},
	}
	if o.History != nil && chatID != "" {
		history, _ := o.History.GetHistory(chatID, 10)
		messages = append(messages, history...)
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(input)},
	})

	resp, err := o.Model.GenerateContent(ctx, messages)
	if err != nil {
		return TaskOutput{Success: false, Metadata: map[string]any{"run_id": runID, "error": fmt.Sprintf("%v: %v", llm.ErrModelUnavailable, err)}}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return TaskOutput{Success: false, Metadata: map[string]any{"run_id": runID, "error": llm.ErrMalformedOutput.Error()}}
	}

	answer := resp.Choices[0].Content
	return TaskOutput{Success: true, Result: answer, Metadata: map[string]any{"run_id": runID, "conversational": true}}
}

// Think adapts the orchestrator to the gateway-facing Brain interface
// and maintains conversation history for the chat.
func (o *Orchestrator) Think(ctx context.Context, chatID string, input string) (string, error) {
	ctx = observability.WithChatID(ctx, chatID)

	out := o.Run(ctx, TaskInput{Description: input})

	if o.History != nil && chatID != "" {
		_ = o.History.AddMessage(chatID, "human", input)
		if out.Result != "" {
			_ = o.History.AddMessage(chatID, "ai", out.Result)
		}
	}

	if !out.Success {
		reason := "unknown error"
		if e, ok := out.Metadata["error"].(string); ok {
			reason = e
		}
		if out.Result != "" {
			return out.Result, fmt.Errorf("run failed: %s", reason)
		}
		return "", fmt.Errorf("run failed: %s", reason)
	}
	return out.Result, nil
}
