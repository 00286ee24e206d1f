package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/arvind/yantra/internal/llm"
	"github.com/arvind/yantra/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

// Phase is one state of the SWE workflow.
type Phase string

const (
	PhaseUnderstand Phase = "understand"
	PhasePlan       Phase = "plan"
	PhaseImplement  Phase = "implement"
	PhaseVerify     Phase = "verify"
	PhaseIterate    Phase = "iterate"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// SWEAgent runs the fixed software-engineering workflow:
// Understand -> Plan -> Implement -> Verify, with a bounded
// Verify -> Iterate -> Implement retry edge for failed verification.
type SWEAgent struct {
	Model       llms.Model
	Executor    *Executor
	RetryBudget int
	// VerifyTool names the code-execution tool whose pass/fail drives
	// the Verify transition. Defaults to "python".
	VerifyTool string
	Logger     *observability.Logger
}

var codeBlockRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n(.+?)\\n```")

// Run drives the phase machine for one task. Exhausting the retry
// budget is a designed terminal state reported as a failed TaskOutput.
func (a *SWEAgent) Run(ctx context.Context, runID, task string) TaskOutput {
	verifyTool := a.VerifyTool
	if verifyTool == "" {
		verifyTool = "python"
	}

	var (
		phase      = PhaseUnderstand
		analysis   string
		plan       []string
		code       string
		stepNotes  []string
		lastErr    string
		iterations int
		visited    []Phase
	)

	for {
		visited = append(visited, phase)
		if a.Logger != nil {
			a.Logger.LogPhase(runID, string(phase))
		}
		if err := ctx.Err(); err != nil {
			return a.output(false, "", runID, visited, plan, code, iterations, fmt.Sprintf("cancelled in %s: %v", phase, err))
		}

		switch phase {
		case PhaseUnderstand:
			observability.SetStatus(observability.RolePlanning, task)
			out, err := llm.Complete(ctx, a.Model, sweSystemPrompt, fmt.Sprintf(sweUnderstandPrompt, task))
			if err != nil {
				return a.output(false, "", runID, visited, plan, code, iterations, err.Error())
			}
			analysis = out
			phase = PhasePlan

		case PhasePlan:
			out, err := llm.Complete(ctx, a.Model, sweSystemPrompt, fmt.Sprintf(swePlanPrompt, task, analysis))
			if err != nil {
				return a.output(false, "", runID, visited, plan, code, iterations, err.Error())
			}
			plan = parseNumberedList(out)
			if len(plan) == 0 {
				plan = []string{task}
			}
			phase = PhaseImplement

		case PhaseImplement:
			observability.SetStatus(observability.RoleExecuting, task)
			if iterations == 0 {
				// First pass: run every plan step through the shared
				// single-step contract.
				for _, stepDesc := range plan {
					prompt := fmt.Sprintf(sweImplementPrompt, task, analysis, stepDesc, priorNotes(stepNotes))
					res, err := a.Executor.ExecuteStep(ctx, sweSystemPrompt, prompt)
					if err != nil {
						return a.output(false, "", runID, visited, plan, code, iterations, err.Error())
					}
					if !res.Result.Success {
						return a.output(false, "", runID, visited, plan, code, iterations, res.Result.Err.Error())
					}
					stepNotes = append(stepNotes, truncate(res.Content, 500))
					if extracted := extractCode(res.Content); extracted != "" {
						code = extracted
					}
				}
			}
			// Re-entry from Iterate carries the fixed code forward.
			phase = PhaseVerify

		case PhaseVerify:
			observability.SetStatus(observability.RoleVerifying, task)
			pass, detail := a.verify(ctx, verifyTool, code)
			if pass {
				phase = PhaseDone
				break
			}
			lastErr = detail
			if iterations < a.RetryBudget {
				phase = PhaseIterate
			} else {
				phase = PhaseFailed
			}

		case PhaseIterate:
			iterations++
			fixed, err := a.debug(ctx, code, lastErr)
			if err != nil {
				return a.output(false, "", runID, visited, plan, code, iterations, err.Error())
			}
			code = fixed
			phase = PhaseImplement

		case PhaseDone:
			observability.SetStatus(observability.RoleIdle, "")
			return a.output(true, a.summary(task, plan, code, iterations, true), runID, visited, plan, code, iterations, "")

		case PhaseFailed:
			observability.SetStatus(observability.RoleIdle, "")
			return a.output(false, a.summary(task, plan, code, iterations, false), runID, visited, plan, code, iterations,
				fmt.Sprintf("retry budget exhausted after %d iterations: %s", iterations, truncate(lastErr, 500)))
		}
	}
}

// verify runs the generated code through the code-execution tool. Only
// a genuine (non-synthetic) success counts as a pass: a substitute
// result manufactured by the fallback path proves nothing about the
// code.
func (a *SWEAgent) verify(ctx context.Context, verifyTool, code string) (bool, string) {
	if strings.TrimSpace(code) == "" {
		return false, "no runnable code was produced"
	}
	args, _ := json.Marshal(map[string]string{"code": code})
	res := a.Executor.Invoker.Invoke(ctx, verifyTool, string(args))
	if res.Success && !res.Synthetic {
		return true, res.Content
	}
	if res.Err != nil {
		return false, res.Err.Error()
	}
	return false, res.Content
}

func (a *SWEAgent) debug(ctx context.Context, code, failure string) (string, error) {
	out, err := llm.Complete(ctx, a.Model, sweSystemPrompt, fmt.Sprintf(sweDebugPrompt, "generated", code, failure))
	if err != nil {
		return "", err
	}
	if fixed := extractCode(out); fixed != "" {
		return fixed, nil
	}
	// No fenced block: take the whole response as code.
	return out, nil
}

func (a *SWEAgent) summary(task string, plan []string, code string, iterations int, ok bool) string {
	var b strings.Builder
	b.WriteString("## Task\n" + task + "\n\n## Plan\n")
	for i, step := range plan {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	if ok {
		fmt.Fprintf(&b, "\n## Verification\npassed after %d fix iterations\n", iterations)
	} else {
		fmt.Fprintf(&b, "\n## Verification\nfailed, retry budget exhausted (%d iterations)\n", iterations)
	}
	if code != "" {
		b.WriteString("\n## Code\n```\n" + truncate(code, 2000) + "\n```\n")
	}
	return b.String()
}

func (a *SWEAgent) output(success bool, result, runID string, visited []Phase, plan []string, code string, iterations int, errText string) TaskOutput {
	md := map[string]any{
		"run_id":     runID,
		"phases":     visited,
		"plan":       plan,
		"iterations": iterations,
	}
	if code != "" {
		md["code"] = code
	}
	if errText != "" {
		md["error"] = errText
	}
	return TaskOutput{Success: success, Result: result, Metadata: md}
}

func extractCode(text string) string {
	if m := codeBlockRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func priorNotes(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	return "\nResults of prior steps:\n" + strings.Join(notes, "\n") + "\n"
}
