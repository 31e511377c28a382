package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeTaskAdded        ActivityType = "task_added"
	TypeTaskToggled      ActivityType = "task_toggled"
	TypeTaskEdited       ActivityType = "task_edited"
	TypeTaskRemoved      ActivityType = "task_removed"
	TypeCompletedCleared ActivityType = "completed_cleared"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TaskID       *string      `json:"task_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	CreatedAt    time.Time    `json:"created_at"`
}
