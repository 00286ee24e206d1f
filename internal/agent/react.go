package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/arvind/yantra/internal/llm"
	"github.com/arvind/yantra/internal/observability"
	"github.com/arvind/yantra/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

// ReactAgent runs the Thought/Action/Observation loop: one reasoning
// step per model call, tool actions resolved fuzzily through the
// registry, bounded by MaxIterations.
type ReactAgent struct {
	Model         llms.Model
	Registry      *tools.Registry
	Invoker       *tools.Invoker
	MaxIterations int
	Logger        *observability.Logger
}

// reasoning step parsed from one model response.
type reasoning struct {
	thought     string
	action      string
	actionInput string
	finalAnswer string
}

var (
	thoughtRe     = regexp.MustCompile(`(?is)Thought\s*:\s*(.+?)(?:\nAction|\nFinal\s*Answer|\z)`)
	finalAnswerRe = regexp.MustCompile(`(?is)Final\s*Answer\s*:\s*(.+)`)
	actionRe      = regexp.MustCompile(`(?i)Action\s*:\s*([\w\- ]+)`)
	actionInputRe = regexp.MustCompile(`(?is)Action\s*Input\s*:\s*(.+?)(?:\n\n|\nThought:|\z)`)
	codeFenceRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
)

// Run executes the loop for one task. Exhausting MaxIterations is a
// designed terminal state, reported as a failed TaskOutput with the
// full trace, not an error.
func (a *ReactAgent) Run(ctx context.Context, runID, task string) TaskOutput {
	observability.SetStatus(observability.RoleReasoning, task)
	defer observability.SetStatus(observability.RoleIdle, "")

	var trace []TraceEntry
	var history strings.Builder
	malformedStreak := 0

	for iteration := 0; iteration < a.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return a.output(false, "", runID, trace, iteration, fmt.Sprintf("cancelled: %v", err))
		}

		prompt := fmt.Sprintf(reactStepPrompt, task, a.Registry.Descriptions(), history.String())
		response, err := llm.Complete(ctx, a.Model, reactSystemPrompt, prompt)
		if err != nil {
			return a.output(false, "", runID, trace, iteration, err.Error())
		}

		step := parseReasoning(response)
		if a.Logger != nil && step.thought != "" {
			a.Logger.LogReasoning(observability.ChatIDFrom(ctx), runID, step.thought)
		}

		// A final answer always wins, even when the same response also
		// declares an action: nothing executes after the answer.
		if step.finalAnswer != "" {
			trace = append(trace, TraceEntry{Thought: step.thought, FinalAnswer: step.finalAnswer})
			return a.output(true, step.finalAnswer, runID, trace, iteration+1, "")
		}

		if step.action == "" {
			malformedStreak++
			trace = append(trace, TraceEntry{Thought: step.thought})
			if malformedStreak >= 2 {
				return a.output(false, "", runID, trace, iteration+1,
					fmt.Sprintf("%v: no action or final answer in %d consecutive responses", llm.ErrMalformedOutput, malformedStreak))
			}
			history.WriteString("\nThought: " + step.thought + "\n" + reactRecoveryHint + "\n")
			continue
		}
		malformedStreak = 0

		res := a.Invoker.Invoke(ctx, step.action, step.actionInput)
		if !res.Success {
			// Unresolvable action or failed fallback synthesis: fatal.
			trace = append(trace, TraceEntry{
				Thought:     step.thought,
				Action:      step.action,
				ActionInput: step.actionInput,
				Observation: fmt.Sprintf("error: %v", res.Err),
			})
			return a.output(false, "", runID, trace, iteration+1, res.Err.Error())
		}

		observation := truncate(res.Content, 2000)
		trace = append(trace, TraceEntry{
			Thought:     step.thought,
			Action:      step.action,
			ActionInput: step.actionInput,
			Observation: observation,
			Synthetic:   res.Synthetic,
		})

		fmt.Fprintf(&history, "\nThought: %s\nAction: %s\nAction Input: %s\nObservation: %s\n",
			step.thought, step.action, step.actionInput, observation)
	}

	return a.output(false, "", runID, trace, a.MaxIterations, "max iterations exceeded without a final answer")
}

func (a *ReactAgent) output(success bool, result, runID string, trace []TraceEntry, iterations int, errText string) TaskOutput {
	md := map[string]any{
		"run_id":     runID,
		"trace":      trace,
		"iterations": iterations,
	}
	if errText != "" {
		md["error"] = errText
	}
	return TaskOutput{Success: success, Result: result, Metadata: md}
}

// parseReasoning extracts thought, action and final answer from a
// model response, tolerating casing and spacing drift. Both an action
// and a final answer may parse from one response; the caller gives the
// final answer precedence.
func parseReasoning(response string) reasoning {
	var step reasoning

	if m := thoughtRe.FindStringSubmatch(response); m != nil {
		step.thought = strings.TrimSpace(m[1])
	}
	if m := finalAnswerRe.FindStringSubmatch(response); m != nil {
		step.finalAnswer = strings.TrimSpace(m[1])
	}
	if m := actionRe.FindStringSubmatch(response); m != nil {
		step.action = strings.TrimSpace(m[1])
	}
	if m := actionInputRe.FindStringSubmatch(response); m != nil {
		step.actionInput = normalizeActionInput(m[1])
	}
	return step
}

// normalizeActionInput coerces the declared input into a JSON object:
// raw JSON passes through, fenced JSON is unwrapped, and anything else
// becomes {"input": ...}.
func normalizeActionInput(text string) string {
	text = strings.TrimSpace(text)
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if json.Valid([]byte(text)) && strings.HasPrefix(text, "{") {
		return text
	}
	wrapped, err := json.Marshal(map[string]string{"input": text})
	if err != nil {
		return "{}"
	}
	return string(wrapped)
}
