package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/arvind/yantra/internal/llm"
	"github.com/tmc/langchaingo/llms"
)

// Classifier decides whether an input is conversational or
// task-oriented, and proposes an initial plan for tasks. One blocking
// model call per classification.
type Classifier struct {
	Model llms.Model
}

// Classify returns (isTask, plan). A malformed model response is
// treated as a task with a single-step plan equal to the raw input, so
// a request is never silently dropped. Only a model transport failure
// surfaces as an error.
func (c *Classifier) Classify(ctx context.Context, input string) (bool, []string, error) {
	response, err := llm.Complete(ctx, c.Model, "", fmt.Sprintf(classifyPrompt, input))
	if err != nil {
		return false, nil, err
	}

	trimmed := strings.TrimSpace(response)
	if strings.HasPrefix(trimmed, "NOT_A_TASK") {
		return false, nil, nil
	}

	if strings.HasPrefix(trimmed, "TASK") {
		lines := strings.Split(trimmed, "\n")
		plan := parseNumberedList(strings.Join(lines[1:], "\n"))
		if len(plan) > 0 {
			return true, plan, nil
		}
	}

	// Malformed output: fall back to a one-step plan rather than
	// dropping the request.
	return true, []string{input}, nil
}

var numberedLineRe = regexp.MustCompile(`^(?:\d+[\.\):]|Step\s+\d+:?)\s*`)

// parseNumberedList extracts step descriptions from a numbered list,
// tolerating "1.", "1)", "1:" and "Step 1:" styles.
func parseNumberedList(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if numberedLineRe.MatchString(line) {
			if step := strings.TrimSpace(numberedLineRe.ReplaceAllString(line, "")); step != "" {
				steps = append(steps, step)
			}
		}
	}
	if len(steps) > 10 {
		steps = steps[:10]
	}
	return steps
}
