package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/arvind/yantra/internal/llm"
)

func TestClassifyNotATask(t *testing.T) {
	c := &Classifier{Model: llm.NewScriptedModel(llm.Reply{Text: "NOT_A_TASK"})}

	isTask, plan, err := c.Classify(context.Background(), "how are you today?")
	if err != nil {
		t.Fatal(err)
	}
	if isTask {
		t.Error("greeting should not classify as a task")
	}
	if plan != nil {
		t.Errorf("expected no plan, got %v", plan)
	}
}

func TestClassifyTaskWithPlan(t *testing.T) {
	c := &Classifier{Model: llm.NewScriptedModel(llm.Reply{
		Text: "TASK\n1. Search for Go release notes\n2. Summarize the changes\n3. Save the summary",
	})}

	isTask, plan, err := c.Classify(context.Background(), "summarize the latest Go release")
	if err != nil {
		t.Fatal(err)
	}
	if !isTask {
		t.Fatal("expected a task classification")
	}
	if len(plan) != 3 {
		t.Fatalf("expected 3 steps, got %d: %v", len(plan), plan)
	}
	if plan[0] != "Search for Go release notes" {
		t.Errorf("unexpected first step: %q", plan[0])
	}
}

func TestClassifyMalformedFallsBackToSingleStep(t *testing.T) {
	c := &Classifier{Model: llm.NewScriptedModel(llm.Reply{Text: "Sure! Here is what I would do..."})}

	isTask, plan, err := c.Classify(context.Background(), "do the thing")
	if err != nil {
		t.Fatal(err)
	}
	if !isTask || len(plan) != 1 || plan[0] != "do the thing" {
		t.Errorf("malformed response should yield a one-step plan, got isTask=%v plan=%v", isTask, plan)
	}
}

func TestClassifyModelFailure(t *testing.T) {
	c := &Classifier{Model: llm.NewScriptedModel(llm.Reply{Err: errors.New("connection refused")})}

	if _, _, err := c.Classify(context.Background(), "anything"); err == nil {
		t.Fatal("transport failure should surface as an error")
	}
}

func TestParseNumberedListStyles(t *testing.T) {
	text := "1. first\n2) second\n3: third\nStep 4: fourth\nnot a step"
	steps := parseNumberedList(text)
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d: %v", len(steps), steps)
	}
	if steps[3] != "fourth" {
		t.Errorf("unexpected step: %q", steps[3])
	}
}
