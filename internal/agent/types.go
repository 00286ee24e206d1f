package agent

// TaskInput is the orchestrator's public request shape: one immutable
// task per invocation. Parameters may pre-supply a plan, pick a flow,
// or toggle memory; unknown keys are ignored.
type TaskInput struct {
	Description string
	Parameters  map[string]any
	OutputPath  string
}

// Flow returns the requested execution driver: "plan" (default),
// "react" or "swe".
func (t TaskInput) Flow() string {
	if f, ok := t.Parameters["flow"].(string); ok && f != "" {
		return f
	}
	return "plan"
}

// PresetPlan returns an externally supplied plan, or nil.
func (t TaskInput) PresetPlan() []string {
	switch v := t.Parameters["plan"].(type) {
	case []string:
		return v
	case []any:
		var plan []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				plan = append(plan, s)
			}
		}
		return plan
	}
	return nil
}

// MemoryEnabled reports whether prior step summaries feed later step
// prompts. Defaults to true.
func (t TaskInput) MemoryEnabled() bool {
	if v, ok := t.Parameters["memory_enabled"].(bool); ok {
		return v
	}
	return true
}

// StoreArtifacts reports whether step outputs are persisted to disk.
func (t TaskInput) StoreArtifacts() bool {
	v, _ := t.Parameters["store_artifacts"].(bool)
	return v
}

// TaskOutput is the terminal result of one run. A failed run still
// carries partial trace/memory in Metadata for diagnosis.
type TaskOutput struct {
	Success  bool
	Result   string
	Metadata map[string]any
}

// StepStatus tracks one planned step through execution.
type StepStatus string

const (
	StatusPending         StepStatus = "pending"
	StatusSucceeded       StepStatus = "succeeded"
	StatusFailedRecovered StepStatus = "failed_recovered"
	StatusFailedFatal     StepStatus = "failed_fatal"
)

// Step is one planned unit of work. Identity is the 1-based index
// within its plan; steps are never reordered at runtime.
type Step struct {
	Index       int        `json:"index"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

// TraceEntry is one ReAct iteration: a thought plus either an executed
// action with its observation or a final answer.
type TraceEntry struct {
	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation,omitempty"`
	Synthetic   bool   `json:"synthetic,omitempty"`
	FinalAnswer string `json:"final_answer,omitempty"`
}
