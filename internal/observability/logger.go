package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeClassify   EventType = "classify"
	EventTypePlan       EventType = "plan"
	EventTypeStep       EventType = "step"
	EventTypePhase      EventType = "phase"
	EventTypeReasoning  EventType = "reasoning"
	EventTypeToolCall   EventType = "tool_call"
	EventTypeToolResult EventType = "tool_result"
	EventTypeFallback   EventType = "fallback"
	EventTypeHeartbeat  EventType = "heartbeat"
	EventTypeLLM        EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger emits structured JSON events to stdout and mirrors LLM
// exchanges into a size-rotated jsonl file.
type Logger struct {
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return &Logger{
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogClassify(chatID, runID string, isTask bool, steps int) {
	l.Log(Event{
		Type:   EventTypeClassify,
		ChatID: chatID,
		RunID:  runID,
		Data:   map[string]any{"is_task": isTask, "plan_steps": steps},
	})
}

func (l *Logger) LogPlan(chatID, runID string, plan []string) {
	l.Log(Event{
		Type:   EventTypePlan,
		ChatID: chatID,
		RunID:  runID,
		Data:   map[string]any{"steps": plan},
	})
}

func (l *Logger) LogStep(runID string, index int, status string) {
	l.Log(Event{
		Type:  EventTypeStep,
		RunID: runID,
		Data:  map[string]any{"index": index, "status": status},
	})
}

func (l *Logger) LogPhase(runID, phase string) {
	l.Log(Event{
		Type:  EventTypePhase,
		RunID: runID,
		Data:  map[string]string{"phase": phase},
	})
}

func (l *Logger) LogReasoning(chatID, runID, thought string) {
	l.Log(Event{
		Type:   EventTypeReasoning,
		ChatID: chatID,
		RunID:  runID,
		Data:   map[string]string{"thought": thought},
	})
}

func (l *Logger) LogToolCall(chatID, tool, args string) {
	l.Log(Event{
		Type:   EventTypeToolCall,
		ChatID: chatID,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

func (l *Logger) LogToolResult(chatID, tool string, success, synthetic bool) {
	l.Log(Event{
		Type:   EventTypeToolResult,
		ChatID: chatID,
		Data: map[string]any{
			"tool":      tool,
			"success":   success,
			"synthetic": synthetic,
		},
	})
}

func (l *Logger) LogFallback(chatID, tool, reason string) {
	l.Log(Event{
		Type:   EventTypeFallback,
		ChatID: chatID,
		Data: map[string]string{
			"tool":   tool,
			"reason": reason,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(chatID, runID string, prompt any, response string) {
	l.Log(Event{
		Type:   EventTypeLLM,
		ChatID: chatID,
		RunID:  runID,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}

type ctxKey int

const chatIDKey ctxKey = iota

// WithChatID attaches the originating chat to the context so tool and
// policy events can be attributed to it.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, chatIDKey, chatID)
}

// ChatIDFrom returns the chat attached to the context, "" when absent.
func ChatIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(chatIDKey).(string); ok {
		return id
	}
	return ""
}
