package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arvind/yantra/internal/governance"
	"github.com/arvind/yantra/internal/llm"
	"github.com/arvind/yantra/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

// Failure classification for a tool call. ErrToolNotFound and
// ErrFallbackSynthesis are fatal; the rest are first routed through
// fallback synthesis.
var (
	ErrToolNotFound      = errors.New("tool not found")
	ErrInvalidArguments  = errors.New("invalid tool arguments")
	ErrToolTimeout       = errors.New("tool execution timed out")
	ErrToolExecution     = errors.New("tool execution failed")
	ErrFallbackSynthesis = errors.New("fallback synthesis failed")
)

// Call is a resolved tool name plus its raw argument payload. The name
// always refers to a tool that existed in the registry snapshot the
// call was resolved against.
type Call struct {
	Tool      string
	Arguments string
}

// Result is the classified outcome of one tool call. Synthetic marks
// content manufactured by the model after the real tool failed; Err
// keeps the original failure for auditing even when the call was
// recovered.
type Result struct {
	Success   bool
	Content   string
	Synthetic bool
	Err       error
}

// Invoker executes tools under a timeout and turns every outcome into a
// classified Result. Callers never see a raw tool error: failures are
// first routed through fallback synthesis, and only an unresolvable
// name or a failed synthesis comes back fatal.
type Invoker struct {
	Registry *Registry
	Model    llms.Model
	Policy   governance.PolicyEngine
	Timeout  time.Duration
	Logger   *observability.Logger
}

func NewInvoker(registry *Registry, model llms.Model, policy governance.PolicyEngine, timeout time.Duration, logger *observability.Logger) *Invoker {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Invoker{
		Registry: registry,
		Model:    model,
		Policy:   policy,
		Timeout:  timeout,
		Logger:   logger,
	}
}

// Invoke resolves name (fuzzily if needed), validates arguments,
// executes the tool under the configured timeout and classifies the
// outcome.
func (inv *Invoker) Invoke(ctx context.Context, name, arguments string) Result {
	tool := inv.Registry.Resolve(name)
	if tool == nil {
		// Nothing to approximate: synthesizing output for a tool that
		// does not exist would invent a capability.
		return Result{Err: fmt.Errorf("%w: %q (available: %v)", ErrToolNotFound, name, inv.Registry.Names())}
	}

	if inv.Logger != nil {
		inv.Logger.LogToolCall(observability.ChatIDFrom(ctx), tool.Name(), arguments)
	}

	if err := validateArguments(tool.Parameters(), arguments); err != nil {
		return inv.fallback(ctx, tool, arguments, fmt.Errorf("%w: %v", ErrInvalidArguments, err))
	}

	if inv.Policy != nil {
		verdict, err := inv.Policy.Evaluate(ctx, governance.Request{
			Tool:      tool.Name(),
			Arguments: arguments,
			ChatID:    observability.ChatIDFrom(ctx),
		})
		if err == nil && verdict.Effect == governance.EffectDeny {
			return inv.fallback(ctx, tool, arguments, fmt.Errorf("%w: denied by policy: %s", ErrToolExecution, verdict.Reason))
		}
	}

	content, err := inv.execute(ctx, tool, arguments)
	if err != nil {
		return inv.fallback(ctx, tool, arguments, err)
	}

	if inv.Logger != nil {
		inv.Logger.LogToolResult(observability.ChatIDFrom(ctx), tool.Name(), true, false)
	}
	return Result{Success: true, Content: content}
}

// execute runs the tool in its own goroutine so a tool that ignores
// context cancellation cannot wedge the run past its timeout.
func (inv *Invoker) execute(ctx context.Context, tool Tool, arguments string) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, inv.Timeout)
	defer cancel()

	type outcome struct {
		content string
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		content, err := tool.Execute(execCtx, arguments)
		done <- outcome{content, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return "", fmt.Errorf("%w: %v", ErrToolExecution, out.err)
		}
		return out.content, nil
	case <-execCtx.Done():
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %v: %s", ErrToolTimeout, inv.Timeout, tool.Name())
		}
		return "", fmt.Errorf("%w: cancelled: %s", ErrToolExecution, tool.Name())
	}
}

const fallbackPrompt = `A tool invocation failed during an autonomous task run. Produce the most plausible output the tool would have returned, so the run can continue. Output only the substitute result, no commentary.

Tool: %s
Tool purpose: %s
Arguments: %s
Failure: %v`

// fallback asks the model to manufacture a plausible substitute result.
// A recovered call comes back as success with the Synthetic tag set and
// the original failure preserved for auditing.
func (inv *Invoker) fallback(ctx context.Context, tool Tool, arguments string, cause error) Result {
	if inv.Logger != nil {
		inv.Logger.LogFallback(observability.ChatIDFrom(ctx), tool.Name(), cause.Error())
	}

	prompt := fmt.Sprintf(fallbackPrompt, tool.Name(), tool.Description(), arguments, cause)
	content, err := llm.Complete(ctx, inv.Model, "", prompt)
	if err != nil || content == "" {
		if err == nil {
			err = llm.ErrMalformedOutput
		}
		return Result{Err: fmt.Errorf("%w: %v (original failure: %v)", ErrFallbackSynthesis, err, cause)}
	}

	if inv.Logger != nil {
		inv.Logger.LogToolResult(observability.ChatIDFrom(ctx), tool.Name(), true, true)
	}
	return Result{Success: true, Content: content, Synthetic: true, Err: cause}
}

// validateArguments checks the raw payload against the tool's JSON
// schema: it must decode to an object and carry every required key.
func validateArguments(schema map[string]any, input string) error {
	if input == "" {
		input = "{}"
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return fmt.Errorf("arguments are not a JSON object: %v", err)
	}

	required, ok := schema["required"].([]string)
	if !ok {
		// Schemas built from decoded JSON carry []any instead.
		if anyList, isAny := schema["required"].([]any); isAny {
			for _, item := range anyList {
				if s, isStr := item.(string); isStr {
					required = append(required, s)
				}
			}
		}
	}
	for _, key := range required {
		if _, present := args[key]; !present {
			return fmt.Errorf("missing required argument %q", key)
		}
	}
	return nil
}
