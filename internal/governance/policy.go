package governance

import (
	"context"
	"fmt"
	"regexp"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request contains the context of a tool call to be evaluated.
type Request struct {
	Tool      string
	Arguments string
	ChatID    string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates tool calls before the invoker runs them.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine is a deny-list implementation of PolicyEngine:
// everything is allowed unless a tool name or argument pattern rule
// matches.
type DefaultPolicyEngine struct {
	deniedTools map[string]bool
	deniedArgs  []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		deniedTools: make(map[string]bool),
	}
}

// NewSafetyPolicyEngine returns an engine preloaded with the baseline
// rules against destructive shell commands.
func NewSafetyPolicyEngine() *DefaultPolicyEngine {
	e := NewDefaultPolicyEngine()
	for _, pattern := range []string{`rm\s+-rf\s+/`, `mkfs`, `shutdown`, `reboot`, `dd\s+if=`} {
		_ = e.DenyArguments(pattern)
	}
	return e
}

func (e *DefaultPolicyEngine) DenyTool(name string) {
	e.deniedTools[name] = true
}

func (e *DefaultPolicyEngine) DenyArguments(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.deniedArgs = append(e.deniedArgs, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if e.deniedTools[req.Tool] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("tool %q is restricted by system policy", req.Tool),
		}, nil
	}

	for _, re := range e.deniedArgs {
		if re.MatchString(req.Arguments) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("arguments match restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{Effect: EffectAllow, Reason: "approved by default policy"}, nil
}
