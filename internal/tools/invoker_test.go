package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arvind/yantra/internal/governance"
	"github.com/arvind/yantra/internal/llm"
)

func TestInvokeSuccess(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("search"))
	inv := NewInvoker(r, llm.NewScriptedModel(), nil, time.Second, nil)

	res := inv.Invoke(context.Background(), "search", `{"query":"go"}`)
	if !res.Success || res.Synthetic {
		t.Fatalf("expected genuine success, got %+v", res)
	}
	if res.Content != `echo: {"query":"go"}` {
		t.Errorf("unexpected content: %s", res.Content)
	}
}

func TestInvokeUnknownToolIsFatal(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("search"))
	model := llm.NewScriptedModel(llm.Reply{Text: "should never be used"})
	inv := NewInvoker(r, model, nil, time.Second, nil)

	res := inv.Invoke(context.Background(), "quantum_teleport", "{}")
	if res.Success {
		t.Fatal("unresolvable tool must not succeed")
	}
	if !errors.Is(res.Err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", res.Err)
	}
	// No fallback synthesis for a tool that does not exist.
	if model.CallCount() != 0 {
		t.Errorf("model should not be consulted, got %d calls", model.CallCount())
	}
}

func TestInvokeFailureRecoveredByFallback(t *testing.T) {
	r := NewRegistry()
	r.Register(failingTool("scraper"))
	model := llm.NewScriptedModel(llm.Reply{Text: "plausible substitute output"})
	inv := NewInvoker(r, model, nil, time.Second, nil)

	res := inv.Invoke(context.Background(), "scraper", `{"url":"https://x"}`)
	if !res.Success {
		t.Fatalf("fallback should recover the call, got %+v", res)
	}
	if !res.Synthetic {
		t.Error("recovered result must carry the synthetic tag")
	}
	if res.Content != "plausible substitute output" {
		t.Errorf("unexpected content: %s", res.Content)
	}
	// Original failure stays attached for auditing.
	if res.Err == nil || !errors.Is(res.Err, ErrToolExecution) {
		t.Errorf("original failure should be preserved, got %v", res.Err)
	}
}

func TestInvokeFallbackSynthesisFailureIsFatal(t *testing.T) {
	r := NewRegistry()
	r.Register(failingTool("scraper"))
	model := llm.NewScriptedModel(llm.Reply{Err: errors.New("model down")})
	inv := NewInvoker(r, model, nil, time.Second, nil)

	res := inv.Invoke(context.Background(), "scraper", `{"url":"https://x"}`)
	if res.Success {
		t.Fatal("failed synthesis must not succeed")
	}
	if !errors.Is(res.Err, ErrFallbackSynthesis) {
		t.Errorf("expected ErrFallbackSynthesis, got %v", res.Err)
	}
}

func TestInvokeMissingRequiredArgumentTriggersFallback(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "search", desc: "search tool", required: []string{"query"}})
	model := llm.NewScriptedModel(llm.Reply{Text: "substitute"})
	inv := NewInvoker(r, model, nil, time.Second, nil)

	res := inv.Invoke(context.Background(), "search", `{"q":"typo"}`)
	if !res.Success || !res.Synthetic {
		t.Fatalf("invalid arguments should route through fallback, got %+v", res)
	}
	if !errors.Is(res.Err, ErrInvalidArguments) {
		t.Errorf("expected ErrInvalidArguments as cause, got %v", res.Err)
	}
}

func TestInvokeTimeout(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "slow", desc: "slow tool", execute: func(ctx context.Context, input string) (string, error) {
		// Ignores cancellation on purpose.
		time.Sleep(500 * time.Millisecond)
		return "late", nil
	}})
	model := llm.NewScriptedModel(llm.Reply{Text: "substitute"})
	inv := NewInvoker(r, model, nil, 50*time.Millisecond, nil)

	res := inv.Invoke(context.Background(), "slow", "{}")
	if !res.Success || !res.Synthetic {
		t.Fatalf("timed-out call should be recovered synthetically, got %+v", res)
	}
	if !errors.Is(res.Err, ErrToolTimeout) {
		t.Errorf("expected ErrToolTimeout as cause, got %v", res.Err)
	}
}

func TestInvokePolicyDenialRoutesThroughFallback(t *testing.T) {
	r := NewRegistry()
	executed := false
	r.Register(&stubTool{name: "shell", desc: "shell tool", execute: func(ctx context.Context, input string) (string, error) {
		executed = true
		return "ran", nil
	}})

	policy := governance.NewDefaultPolicyEngine()
	if err := policy.DenyArguments(`rm\s+-rf`); err != nil {
		t.Fatal(err)
	}
	model := llm.NewScriptedModel(llm.Reply{Text: "refused, suggesting an alternative"})
	inv := NewInvoker(r, model, policy, time.Second, nil)

	res := inv.Invoke(context.Background(), "shell", `{"command":"rm -rf /tmp/x"}`)
	if executed {
		t.Fatal("denied tool must not execute")
	}
	if !res.Success || !res.Synthetic {
		t.Fatalf("denied call should come back synthetic, got %+v", res)
	}
}
