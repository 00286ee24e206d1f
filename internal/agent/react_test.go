package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arvind/yantra/internal/llm"
	"github.com/arvind/yantra/internal/tools"
)

func newReactAgent(model *llm.ScriptedModel, registry *tools.Registry, maxIter int) *ReactAgent {
	return &ReactAgent{
		Model:         model,
		Registry:      registry,
		Invoker:       tools.NewInvoker(registry, model, nil, time.Second, nil),
		MaxIterations: maxIter,
	}
}

func TestReactFinalAnswerWinsOverAction(t *testing.T) {
	// One response declaring both an action and a final answer: the
	// answer wins and nothing executes.
	model := llm.NewScriptedModel(llm.Reply{
		Text: "Thought: I already know this.\nAction: search\nAction Input: {\"query\": \"go\"}\nFinal Answer: Go 1.22 added range-over-int.",
	})
	// Empty registry: any attempted invocation would fail the run.
	a := newReactAgent(model, tools.NewRegistry(), 5)

	out := a.Run(context.Background(), "run-1", "what changed in Go 1.22?")
	if !out.Success {
		t.Fatalf("expected success, got %+v", out.Metadata)
	}
	if out.Result != "Go 1.22 added range-over-int." {
		t.Errorf("unexpected result: %q", out.Result)
	}

	trace := out.Metadata["trace"].([]TraceEntry)
	if len(trace) != 1 || trace[0].FinalAnswer == "" {
		t.Errorf("trace should end with the final answer: %+v", trace)
	}
}

func TestReactToolLoopThenAnswer(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&fakeTool{name: "search", execute: func(ctx context.Context, input string) (string, error) {
		return "three results about Go generics", nil
	}})

	model := llm.NewScriptedModel(
		llm.Reply{Text: "Thought: I should look this up.\nAction: search\nAction Input: {\"query\": \"go generics\"}"},
		llm.Reply{Text: "Thought: The results are enough.\nFinal Answer: Generics landed in Go 1.18."},
	)
	a := newReactAgent(model, registry, 5)

	out := a.Run(context.Background(), "run-1", "when did Go get generics?")
	if !out.Success {
		t.Fatalf("expected success, got %+v", out.Metadata)
	}

	trace := out.Metadata["trace"].([]TraceEntry)
	if len(trace) != 2 {
		t.Fatalf("expected 2 trace entries, got %d", len(trace))
	}
	if trace[0].Action != "search" || !strings.Contains(trace[0].Observation, "three results") {
		t.Errorf("unexpected first entry: %+v", trace[0])
	}

	// Second iteration's prompt must carry the observation.
	if !strings.Contains(model.Prompts[1], "three results about Go generics") {
		t.Errorf("history missing observation:\n%s", model.Prompts[1])
	}
}

func TestReactMaxIterationsIsDesignedFailure(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&fakeTool{name: "search", execute: func(ctx context.Context, input string) (string, error) {
		return "more results", nil
	}})

	model := llm.NewScriptedModel(
		llm.Reply{Text: "Thought: searching.\nAction: search\nAction Input: {\"query\": \"a\"}"},
		llm.Reply{Text: "Thought: searching again.\nAction: search\nAction Input: {\"query\": \"b\"}"},
	)
	a := newReactAgent(model, registry, 2)

	out := a.Run(context.Background(), "run-1", "endless task")
	if out.Success {
		t.Fatal("exhausted iterations must report failure")
	}
	if msg, _ := out.Metadata["error"].(string); !strings.Contains(msg, "max iterations") {
		t.Errorf("error should name the bound, got %q", msg)
	}
	if len(out.Metadata["trace"].([]TraceEntry)) != 2 {
		t.Error("full trace should survive the exhaustion")
	}
}

func TestReactRepeatedMalformedOutputIsFatal(t *testing.T) {
	model := llm.NewScriptedModel(
		llm.Reply{Text: "I am not sure what to do here."},
		llm.Reply{Text: "Still thinking about it."},
	)
	a := newReactAgent(model, tools.NewRegistry(), 5)

	out := a.Run(context.Background(), "run-1", "task")
	if out.Success {
		t.Fatal("two consecutive malformed responses must be fatal")
	}
	if msg, _ := out.Metadata["error"].(string); !strings.Contains(msg, "malformed") {
		t.Errorf("error should classify as malformed output, got %q", msg)
	}
	// One malformed response alone is tolerated: the agent asked twice.
	if model.CallCount() != 2 {
		t.Errorf("expected 2 model calls, got %d", model.CallCount())
	}
}

func TestReactFatalToolFailureCarriesTrace(t *testing.T) {
	model := llm.NewScriptedModel(
		llm.Reply{Text: "Thought: use a tool.\nAction: quantum_teleport\nAction Input: {}"},
	)
	a := newReactAgent(model, tools.NewRegistry(), 5)

	out := a.Run(context.Background(), "run-1", "task")
	if out.Success {
		t.Fatal("unresolvable action must be fatal")
	}
	trace := out.Metadata["trace"].([]TraceEntry)
	if len(trace) != 1 || !strings.Contains(trace[0].Observation, "error") {
		t.Errorf("trace should record the failed action: %+v", trace)
	}
}

func TestNormalizeActionInput(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"query": "go"}`, `{"query": "go"}`},
		{"```json\n{\"query\": \"go\"}\n```", `{"query": "go"}`},
		{"plain text query", `{"input":"plain text query"}`},
	}
	for _, tc := range cases {
		if got := normalizeActionInput(tc.in); got != tc.want {
			t.Errorf("normalizeActionInput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
