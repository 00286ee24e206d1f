package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// PythonTool runs a snippet through the python3 interpreter. It is the
// default verification tool for the software-engineering workflow, so
// a snippet that exits non-zero must come back as an error.
type PythonTool struct {
	Interpreter string
	Timeout     time.Duration
	WorkDir     string
}

func NewPythonTool(workDir string) *PythonTool {
	return &PythonTool{
		Interpreter: "python3",
		Timeout:     60 * time.Second,
		WorkDir:     workDir,
	}
}

func (p *PythonTool) Name() string {
	return "python"
}

func (p *PythonTool) Description() string {
	return "Execute a Python code snippet and return its stdout/stderr. Use print() to surface results."
}

func (p *PythonTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "The Python code to execute",
			},
		},
		"required": []string{"code"},
	}
}

func (p *PythonTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Code) == "" {
		return "", fmt.Errorf("empty code")
	}

	runCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.Interpreter, "-c", args.Code)
	cmd.Dir = p.WorkDir

	output, err := cmd.CombinedOutput()
	result := strings.TrimSpace(string(output))

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("python execution timed out after %s", p.Timeout)
		}
		if result == "" {
			return "", fmt.Errorf("python execution failed: %v", err)
		}
		return "", fmt.Errorf("python execution failed: %v\n%s", err, result)
	}

	if result == "" {
		result = "(no output; use print() to surface results)"
	}
	return result, nil
}
