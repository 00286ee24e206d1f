package store

import (
	"path/filepath"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHistoryRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.AddMessage("chat1", "human", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage("chat1", "ai", "hi there"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage("chat2", "human", "other chat"); err != nil {
		t.Fatal(err)
	}

	history, err := s.GetHistory("chat1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Role != llms.ChatMessageTypeHuman {
		t.Errorf("first message should be human, got %s", history[0].Role)
	}
	if history[1].Role != llms.ChatMessageTypeAI {
		t.Errorf("second message should be ai, got %s", history[1].Role)
	}
}

func TestScheduledTasks(t *testing.T) {
	s := openTestStore(t)

	if err := s.AddTask("chat1", "check the weather", 300); err != nil {
		t.Fatal(err)
	}

	// Backdated last_run means the task is due immediately.
	tasks, err := s.GetPendingTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 pending task, got %d", len(tasks))
	}
	if tasks[0].Description != "check the weather" {
		t.Errorf("unexpected description: %s", tasks[0].Description)
	}

	if err := s.UpdateTaskLastRun(tasks[0].ID); err != nil {
		t.Fatal(err)
	}
	tasks, err = s.GetPendingTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Errorf("task should not be pending right after a run, got %d", len(tasks))
	}

	if err := s.ClearTasks("chat1"); err != nil {
		t.Fatal(err)
	}
}

func TestRunAuditTrail(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateRun("run-1", "chat1", "summarize a page"); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordStep("run-1", 1, "succeeded", "fetched page", "output/run-1/step_01.md", false); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordStep("run-1", 2, "failed_recovered", "search degraded", "", true); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishRun("run-1", true, "done"); err != nil {
		t.Fatal(err)
	}

	steps, err := s.GetRunSteps("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 step records, got %d", len(steps))
	}
	if steps[0].Index != 1 || steps[0].Synthetic {
		t.Errorf("unexpected first step: %+v", steps[0])
	}
	if steps[1].Status != "failed_recovered" || !steps[1].Synthetic {
		t.Errorf("unexpected second step: %+v", steps[1])
	}
}
