package mcp

import (
	"time"

	"github.com/rpggio/todoflow/internal/domain/activity"
	"github.com/rpggio/todoflow/internal/domain/task"
)

type ListTasksParams struct{}

type AddTaskParams struct {
	Text string `json:"text" jsonschema:"Task text. Leading and trailing whitespace is trimmed; blank text adds nothing."`
}

type TaskIDParams struct {
	ID string `json:"id" jsonschema:"Task ID"`
}

type EditTaskParams struct {
	ID   string `json:"id" jsonschema:"Task ID"`
	Text string `json:"text" jsonschema:"New task text. Blank or unchanged text is ignored."`
}

type SetFilterParams struct {
	Filter string `json:"filter" jsonschema:"One of all, active, completed"`
}

type GetRecentActivityParams struct {
	TaskID string `json:"task_id,omitempty" jsonschema:"Only activity for this task"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of entries"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of newest entries to skip"`
}

// TaskItem is the view model for one task.
type TaskItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
}

// TaskListView is the state a client renders after every command.
type TaskListView struct {
	Filter         string     `json:"filter"`
	Tasks          []TaskItem `json:"tasks"`
	ActiveCount    int        `json:"active_count"`
	CompletedCount int        `json:"completed_count"`
	TotalCount     int        `json:"total_count"`
}

type AddTaskResult struct {
	Added bool         `json:"added"`
	Task  *TaskItem    `json:"task,omitempty"`
	View  TaskListView `json:"view"`
}

type ActivityEntryResponse struct {
	Timestamp string                `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	TaskID    string                `json:"task_id,omitempty"`
	Summary   string                `json:"summary"`
}

type RecentActivityResult struct {
	Entries []ActivityEntryResponse `json:"entries"`
}

func newTaskItem(t task.Task) TaskItem {
	return TaskItem{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: formatTime(t.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
