package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/arvind/yantra/internal/store"
)

// Messenger delivers scheduler output back to the chat that created
// the task. Gateways implement it.
type Messenger interface {
	Send(chatID string, text string) error
}

// TaskStore is the scheduler's view of task persistence.
type TaskStore interface {
	GetPendingTasks() ([]store.ScheduledTask, error)
	UpdateTaskLastRun(id int) error
	DeleteTask(chatID string, taskID int) error
}

// Scheduler polls for due tasks and routes each through the brain as a
// normal input, then notifies the owning chat.
type Scheduler struct {
	Brain    Brain
	Store    TaskStore
	Gateway  Messenger
	Interval time.Duration
}

func NewScheduler(brain Brain, taskStore TaskStore, gateway Messenger) *Scheduler {
	return &Scheduler{
		Brain:    brain,
		Store:    taskStore,
		Gateway:  gateway,
		Interval: 30 * time.Second,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Println("Task scheduler started...")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollAndExecute(ctx)
		}
	}
}

func (s *Scheduler) pollAndExecute(ctx context.Context) {
	tasks, err := s.Store.GetPendingTasks()
	if err != nil {
		log.Printf("Error polling tasks: %v", err)
		return
	}

	for _, t := range tasks {
		log.Printf("Executing scheduled task %d for chat %s: %s", t.ID, t.ChatID, t.Description)

		response, err := s.Brain.Think(ctx, t.ChatID,
			fmt.Sprintf("[SYSTEM: This is the execution of a previously scheduled task: \"%s\". Provide the output/reminder for the user. DO NOT schedule it again.]", t.Description))
		if err != nil {
			log.Printf("Error executing scheduled task %d: %v", t.ID, err)
			continue
		}

		if err := s.Store.UpdateTaskLastRun(t.ID); err != nil {
			log.Printf("Error updating last run for task %d: %v", t.ID, err)
		}

		// One-time tasks (interval 0) are removed after firing.
		if t.IntervalSeconds == 0 {
			if err := s.Store.DeleteTask(t.ChatID, t.ID); err != nil {
				log.Printf("Error deleting one-time task %d: %v", t.ID, err)
			}
		}

		if s.Gateway != nil {
			_ = s.Gateway.Send(t.ChatID, "⏰ *Scheduled Task Output*\n\n"+response)
		}
	}
}
