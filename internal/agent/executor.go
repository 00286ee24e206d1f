package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arvind/yantra/internal/llm"
	"github.com/arvind/yantra/internal/observability"
	"github.com/arvind/yantra/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

// RunRecorder persists per-step audit records. Satisfied by
// store.Store; nil disables auditing.
type RunRecorder interface {
	RecordStep(runID string, index int, status, summary, artifactPath string, synthetic bool) error
}

// ExecOptions tune one executor run.
type ExecOptions struct {
	MemoryEnabled  bool
	StoreArtifacts bool
	OutputPath     string
}

// Executor drives a plan step by step: for each step it asks the model
// which tool to use, invokes it, and accumulates the result into
// artifact memory for later steps' prompts.
type Executor struct {
	Model    llms.Model
	Registry *tools.Registry
	Invoker  *tools.Invoker
	Logger   *observability.Logger
	Recorder RunRecorder
}

// StepResult is the outcome of one single-step execution: either a
// tool invocation result or the model's direct text answer.
type StepResult struct {
	Content string
	Tool    string
	Direct  bool
	Result  tools.Result
}

// ExecuteStep runs the single-step contract shared by the planning
// executor and the SWE workflow: one function-calling turn, then at
// most one tool invocation.
func (e *Executor) ExecuteStep(ctx context.Context, systemPrompt, prompt string) (StepResult, error) {
	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(systemPrompt)}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(prompt)}},
	}

	choice, err := llm.CompleteWithTools(ctx, e.Model, messages, e.Registry.LLMTools())
	if err != nil {
		return StepResult{}, err
	}

	if len(choice.ToolCalls) > 0 {
		tc := choice.ToolCalls[0]
		res := e.Invoker.Invoke(ctx, tc.FunctionCall.Name, tc.FunctionCall.Arguments)
		return StepResult{Content: res.Content, Tool: tc.FunctionCall.Name, Result: res}, nil
	}

	if strings.TrimSpace(choice.Content) == "" {
		return StepResult{}, fmt.Errorf("%w: neither tool call nor answer", llm.ErrMalformedOutput)
	}

	// The model answered the step directly without needing a tool.
	return StepResult{Content: choice.Content, Direct: true, Result: tools.Result{Success: true, Content: choice.Content}}, nil
}

// Execute runs the plan in strict index order. Recoverable tool
// failures (fallback-synthesized results) mark the step
// failed_recovered and the plan continues; an unrecoverable failure
// marks it failed_fatal and aborts the remainder, returning partial
// results.
func (e *Executor) Execute(ctx context.Context, runID, task string, plan []string, opts ExecOptions) TaskOutput {
	memory := NewArtifactMemory()
	steps := make([]Step, len(plan))
	for i, desc := range plan {
		steps[i] = Step{Index: i + 1, Description: desc, Status: StatusPending}
	}

	observability.SetStatus(observability.RoleExecuting, task)
	defer observability.SetStatus(observability.RoleIdle, "")

	var lastContent string
	for i := range steps {
		st := &steps[i]

		// Cooperative cancellation checkpoint between steps.
		if err := ctx.Err(); err != nil {
			return e.output(false, lastContent, runID, steps, memory, fmt.Sprintf("cancelled before step %d: %v", st.Index, err))
		}

		prompt := e.stepPrompt(task, st, len(steps), memory, opts.MemoryEnabled)
		res, err := e.ExecuteStep(ctx, stepSystemPrompt, prompt)
		if err != nil {
			st.Status = StatusFailedFatal
			e.logStep(runID, st)
			return e.output(false, lastContent, runID, steps, memory, fmt.Sprintf("step %d: %v", st.Index, err))
		}

		if !res.Result.Success {
			st.Status = StatusFailedFatal
			e.logStep(runID, st)
			e.record(runID, st, "", "", false)
			return e.output(false, lastContent, runID, steps, memory, fmt.Sprintf("step %d: %v", st.Index, res.Result.Err))
		}

		if res.Result.Synthetic {
			st.Status = StatusFailedRecovered
		} else {
			st.Status = StatusSucceeded
		}

		summary := e.summarize(ctx, res.Content)
		if err := memory.Write(st.Index, Artifact{Content: res.Content, Summary: summary}); err != nil {
			st.Status = StatusFailedFatal
			return e.output(false, lastContent, runID, steps, memory, err.Error())
		}
		lastContent = res.Content

		artifactPath := ""
		if opts.StoreArtifacts {
			artifactPath = e.writeArtifact(opts.OutputPath, runID, st.Index, res.Content)
		}
		e.logStep(runID, st)
		e.record(runID, st, summary, artifactPath, res.Result.Synthetic)
	}

	return e.output(true, lastContent, runID, steps, memory, "")
}

func (e *Executor) stepPrompt(task string, st *Step, total int, memory *ArtifactMemory, memoryEnabled bool) string {
	memoryContext := ""
	if memoryEnabled && memory.Len() > 0 {
		memoryContext = fmt.Sprintf(memoryContextHeader, memory.SummaryContext())
	}
	return fmt.Sprintf(stepPrompt, task, st.Index, total, st.Description, memoryContext)
}

// summarize produces a short digest of step content for later prompts.
// Truncation covers for a failed or empty model digest.
func (e *Executor) summarize(ctx context.Context, content string) string {
	summary, err := llm.Complete(ctx, e.Model, "", fmt.Sprintf(summaryPrompt, truncate(content, 4000)))
	if err != nil || strings.TrimSpace(summary) == "" {
		return truncate(content, 240)
	}
	return strings.TrimSpace(summary)
}

func (e *Executor) writeArtifact(outputPath, runID string, index int, content string) string {
	dir := outputPath
	if dir == "" {
		dir = filepath.Join("output", runID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf("step_%02d.md", index))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return ""
	}
	return path
}

func (e *Executor) logStep(runID string, st *Step) {
	if e.Logger != nil {
		e.Logger.LogStep(runID, st.Index, string(st.Status))
	}
}

func (e *Executor) record(runID string, st *Step, summary, artifactPath string, synthetic bool) {
	if e.Recorder != nil {
		_ = e.Recorder.RecordStep(runID, st.Index, string(st.Status), summary, artifactPath, synthetic)
	}
}

func (e *Executor) output(success bool, result, runID string, steps []Step, memory *ArtifactMemory, errText string) TaskOutput {
	md := map[string]any{
		"run_id": runID,
		"steps":  steps,
		"memory": memory.Snapshot(),
	}
	if errText != "" {
		md["error"] = errText
	}
	return TaskOutput{Success: success, Result: result, Metadata: md}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
