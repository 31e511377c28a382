package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/todoflow/internal/domain/task"
)

// DefaultLimit caps GetRecentActivity when no limit is given.
const DefaultLimit = 50

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || entry.ActivityType == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering, newest first.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, ErrInvalidInput
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}

// Recorder returns a task listener that logs every store mutation.
// Failures are logged and never reach the store.
func (s *Service) Recorder() task.Listener {
	return func(ctx context.Context, ev task.Event) {
		entry := EntryFromEvent(ev)
		if err := s.LogActivity(ctx, entry); err != nil {
			s.logger.Error("failed to record task activity", "type", ev.Type, "error", err)
		}
	}
}

// EntryFromEvent converts a store event into an activity entry.
func EntryFromEvent(ev task.Event) *ActivityEntry {
	entry := &ActivityEntry{ActivityType: ActivityType(ev.Type)}
	if ev.Task.ID != "" {
		id := ev.Task.ID
		entry.TaskID = &id
	}

	switch ev.Type {
	case task.EventAdded:
		entry.Summary = fmt.Sprintf("added %q", ev.Task.Text)
	case task.EventToggled:
		if ev.Task.Completed {
			entry.Summary = fmt.Sprintf("completed %q", ev.Task.Text)
		} else {
			entry.Summary = fmt.Sprintf("reopened %q", ev.Task.Text)
		}
	case task.EventEdited:
		entry.Summary = fmt.Sprintf("renamed %q to %q", ev.PreviousText, ev.Task.Text)
	case task.EventRemoved:
		entry.Summary = fmt.Sprintf("removed %q", ev.Task.Text)
	case task.EventCompletedCleared:
		noun := "tasks"
		if ev.Removed == 1 {
			noun = "task"
		}
		entry.Summary = fmt.Sprintf("cleared %d completed %s", ev.Removed, noun)
	default:
		entry.Summary = string(ev.Type)
	}
	return entry
}
