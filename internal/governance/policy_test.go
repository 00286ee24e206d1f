package governance

import (
	"context"
	"testing"
)

func TestDefaultPolicyEngine_Evaluate(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	ctx := context.Background()

	res, err := engine.Evaluate(ctx, Request{Tool: "search"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Effect != EffectAllow {
		t.Errorf("Expected EffectAllow, got %s", res.Effect)
	}

	engine.DenyTool("shell")
	res, err = engine.Evaluate(ctx, Request{Tool: "shell"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny, got %s", res.Effect)
	}
}

func TestDefaultPolicyEngine_DenyArguments(t *testing.T) {
	engine := NewSafetyPolicyEngine()
	ctx := context.Background()

	res, err := engine.Evaluate(ctx, Request{
		Tool:      "shell",
		Arguments: `{"command": "rm -rf /"}`,
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny for destructive command, got %s", res.Effect)
	}

	res, _ = engine.Evaluate(ctx, Request{
		Tool:      "shell",
		Arguments: `{"command": "ls -la"}`,
	})
	if res.Effect != EffectAllow {
		t.Errorf("Expected EffectAllow for benign command, got %s", res.Effect)
	}
}
