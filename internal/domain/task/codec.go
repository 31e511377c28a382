package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Encode serializes tasks into the slot format.
func Encode(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encoding tasks: %w", err)
	}
	return data, nil
}

// Decode parses a stored task list. Anything that is not an array of
// task-shaped records with unique ids and non-blank text is rejected.
// Field names match case-insensitively, and a record without createdAt
// loads with a zero CreatedAt that is kept as-is on the next write.
func Decode(data []byte) ([]Task, error) {
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	seen := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: task %d has no id", ErrInvalidData, i)
		}
		if strings.TrimSpace(t.Text) == "" {
			return nil, fmt.Errorf("%w: task %s has no text", ErrInvalidData, t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidData, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}
