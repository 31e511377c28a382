package task

// EventType identifies the kind of mutation reported to listeners.
type EventType string

const (
	EventAdded            EventType = "task_added"
	EventToggled          EventType = "task_toggled"
	EventEdited           EventType = "task_edited"
	EventRemoved          EventType = "task_removed"
	EventCompletedCleared EventType = "completed_cleared"
)

// Event describes one applied mutation.
type Event struct {
	Type EventType
	// Task is the affected task after the change. Zero for EventCompletedCleared.
	Task Task
	// PreviousText is set for EventEdited.
	PreviousText string
	// Removed is the number of tasks dropped by EventCompletedCleared.
	Removed int
}
