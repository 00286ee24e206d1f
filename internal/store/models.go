package store

import "time"

// Message is one persisted conversation turn.
type Message struct {
	ID        int       `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ScheduledTask is a recurring (or one-shot, interval 0) task row the
// scheduler polls.
type ScheduledTask struct {
	ID              int    `json:"id"`
	ChatID          string `json:"chat_id"`
	Description     string `json:"description"`
	IntervalSeconds int    `json:"interval_seconds"`
	Status          string `json:"status"`
}

// Run is the audit record for one orchestrator invocation.
type Run struct {
	ID          string `json:"id"`
	ChatID      string `json:"chat_id"`
	Description string `json:"description"`
	Success     bool   `json:"success"`
	Result      string `json:"result"`
	Finished    bool   `json:"finished"`
}

// StepRecord is the audit record for one executed plan step.
type StepRecord struct {
	RunID        string `json:"run_id"`
	Index        int    `json:"index"`
	Status       string `json:"status"`
	Summary      string `json:"summary"`
	ArtifactPath string `json:"artifact_path"`
	Synthetic    bool   `json:"synthetic"`
}
