package store

import (
	"database/sql"

	_ "github.com/glebarez/go-sqlite"
	"github.com/tmc/langchaingo/llms"
)

// Store is the sqlite-backed persistence layer: conversation history,
// scheduled tasks, and the run/step audit trail.
type Store struct {
	DB *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT,
			role TEXT,
			content TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT,
			task_description TEXT,
			interval_seconds INTEGER,
			last_run DATETIME,
			status TEXT DEFAULT 'active'
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			chat_id TEXT,
			description TEXT,
			success INTEGER,
			result TEXT,
			finished INTEGER DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_steps (
			run_id TEXT,
			step_index INTEGER,
			status TEXT,
			summary TEXT,
			artifact_path TEXT,
			synthetic INTEGER,
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, step_index)
		);`,
	}
	for _, q := range queries {
		if _, err = db.Exec(q); err != nil {
			return nil, err
		}
	}

	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// --- conversation history ---

func (s *Store) AddMessage(chatID string, role string, content string) error {
	_, err := s.DB.Exec(`INSERT INTO messages (chat_id, role, content) VALUES (?, ?, ?)`, chatID, role, content)
	return err
}

// GetHistory returns the last `limit` turns for a chat in chronological
// order, already shaped as model messages.
func (s *Store) GetHistory(chatID string, limit int) ([]llms.MessageContent, error) {
	rows, err := s.DB.Query(`SELECT role, content FROM messages WHERE chat_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []llms.MessageContent
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}

		var msgRole llms.ChatMessageType
		switch role {
		case "ai":
			msgRole = llms.ChatMessageTypeAI
		case "system":
			msgRole = llms.ChatMessageTypeSystem
		default:
			msgRole = llms.ChatMessageTypeHuman
		}

		history = append(history, llms.MessageContent{
			Role:  msgRole,
			Parts: []llms.ContentPart{llms.TextPart(content)},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returned newest first; flip to chronological.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

// --- scheduled tasks ---

func (s *Store) AddTask(chatID string, description string, intervalSeconds int) error {
	// last_run backdated so the task is due on the first poll.
	_, err := s.DB.Exec(
		`INSERT INTO tasks (chat_id, task_description, interval_seconds, last_run) VALUES (?, ?, ?, datetime('now', '-365 days'))`,
		chatID, description, intervalSeconds)
	return err
}

func (s *Store) GetPendingTasks() ([]ScheduledTask, error) {
	rows, err := s.DB.Query(`
		SELECT id, chat_id, task_description, interval_seconds, status
		FROM tasks
		WHERE status = 'active'
		AND (last_run IS NULL OR (julianday('now') - julianday(last_run)) * 86400 >= interval_seconds)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []ScheduledTask
	for rows.Next() {
		var t ScheduledTask
		if err := rows.Scan(&t.ID, &t.ChatID, &t.Description, &t.IntervalSeconds, &t.Status); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTaskLastRun(id int) error {
	_, err := s.DB.Exec(`UPDATE tasks SET last_run = datetime('now') WHERE id = ?`, id)
	return err
}

func (s *Store) DeleteTask(chatID string, taskID int) error {
	_, err := s.DB.Exec(`DELETE FROM tasks WHERE chat_id = ? AND id = ?`, chatID, taskID)
	return err
}

func (s *Store) ClearTasks(chatID string) error {
	_, err := s.DB.Exec(`DELETE FROM tasks WHERE chat_id = ?`, chatID)
	return err
}

// --- run audit trail ---

func (s *Store) CreateRun(runID, chatID, description string) error {
	_, err := s.DB.Exec(`INSERT INTO runs (id, chat_id, description) VALUES (?, ?, ?)`, runID, chatID, description)
	return err
}

func (s *Store) FinishRun(runID string, success bool, result string) error {
	_, err := s.DB.Exec(
		`UPDATE runs SET success = ?, result = ?, finished = 1, finished_at = datetime('now') WHERE id = ?`,
		boolInt(success), result, runID)
	return err
}

func (s *Store) RecordStep(runID string, index int, status, summary, artifactPath string, synthetic bool) error {
	_, err := s.DB.Exec(
		`INSERT OR REPLACE INTO run_steps (run_id, step_index, status, summary, artifact_path, synthetic) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, index, status, summary, artifactPath, boolInt(synthetic))
	return err
}

// GetRunSteps returns the step audit records for a run in index order.
func (s *Store) GetRunSteps(runID string) ([]StepRecord, error) {
	rows, err := s.DB.Query(
		`SELECT run_id, step_index, status, summary, artifact_path, synthetic FROM run_steps WHERE run_id = ? ORDER BY step_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var rec StepRecord
		var synthetic int
		if err := rows.Scan(&rec.RunID, &rec.Index, &rec.Status, &rec.Summary, &rec.ArtifactPath, &synthetic); err != nil {
			return nil, err
		}
		rec.Synthetic = synthetic != 0
		steps = append(steps, rec)
	}
	return steps, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
