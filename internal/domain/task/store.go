package task

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/todoflow/internal/repository"
)

// StoreConfig configures a Store.
type StoreConfig struct {
	Slot      Slot
	Key       string
	Logger    *slog.Logger
	Clock     func() time.Time
	NewID     func() string
	Listeners []Listener
}

// Store owns the task list. Every mutation is applied in memory and then
// written to the slot as a whole before the call returns.
type Store struct {
	mu        sync.Mutex
	slot      Slot
	key       string
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	listeners []Listener

	tasks  []Task
	filter Filter

	// notifyMu serializes listener delivery; pending is guarded by mu.
	notifyMu sync.Mutex
	pending  []pendingEvent
}

type pendingEvent struct {
	ctx context.Context
	ev  Event
}

// NewStore creates a store and loads any previously persisted task list.
// A missing or unusable stored value yields an empty list.
func NewStore(ctx context.Context, cfg StoreConfig) *Store {
	s := &Store{
		slot:      cfg.Slot,
		key:       cfg.Key,
		logger:    cfg.Logger,
		now:       cfg.Clock,
		newID:     cfg.NewID,
		listeners: append([]Listener(nil), cfg.Listeners...),
		tasks:     []Task{},
		filter:    FilterAll,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	if s.slot == nil {
		return
	}
	data, err := s.slot.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to read task list, starting empty", "key", s.key, "error", err)
		}
		return
	}
	tasks, err := Decode(data)
	if err != nil {
		s.logger.Warn("discarding stored task list", "key", s.key, "error", err)
		return
	}
	s.tasks = tasks
	s.logger.Debug("loaded task list", "key", s.key, "count", len(tasks))
}

// Subscribe registers a listener for applied mutations. Listeners are called
// one at a time in mutation order. They may read the store but must not
// mutate it.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Add appends a new task. It returns nil and changes nothing when text is
// blank after trimming.
func (s *Store) Add(ctx context.Context, text string) *Task {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	t := Task{
		ID:        s.newID(),
		Text:      text,
		Completed: false,
		CreatedAt: s.now(),
	}
	s.tasks = append(s.tasks, t)
	s.persist(ctx)
	s.enqueue(ctx, Event{Type: EventAdded, Task: t})
	s.mu.Unlock()

	s.flush()
	return &t
}

// Toggle flips the completed flag of the task with the given id.
// Unknown ids are ignored.
func (s *Store) Toggle(ctx context.Context, id string) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	t := s.tasks[i]
	s.persist(ctx)
	s.enqueue(ctx, Event{Type: EventToggled, Task: t})
	s.mu.Unlock()

	s.flush()
}

// Edit replaces the text of the task with the given id. Blank text,
// unchanged text and unknown ids are ignored.
func (s *Store) Edit(ctx context.Context, id, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || s.tasks[i].Text == text {
		s.mu.Unlock()
		return
	}
	previous := s.tasks[i].Text
	s.tasks[i].Text = text
	t := s.tasks[i]
	s.persist(ctx)
	s.enqueue(ctx, Event{Type: EventEdited, Task: t, PreviousText: previous})
	s.mu.Unlock()

	s.flush()
}

// Remove deletes the task with the given id if present.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	t := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.persist(ctx)
	s.enqueue(ctx, Event{Type: EventRemoved, Task: t})
	s.mu.Unlock()

	s.flush()
}

// ClearCompleted removes every completed task, keeping the order of the rest.
func (s *Store) ClearCompleted(ctx context.Context) {
	s.mu.Lock()
	kept := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	if removed == 0 {
		s.mu.Unlock()
		return
	}
	s.tasks = kept
	s.persist(ctx)
	s.enqueue(ctx, Event{Type: EventCompletedCleared, Removed: removed})
	s.mu.Unlock()

	s.flush()
}

// SetFilter changes the visible subset. Unknown filters are ignored.
// The filter is never persisted.
func (s *Store) SetFilter(f Filter) {
	if !f.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// Filter returns the current filter.
func (s *Store) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// VisibleTasks returns the tasks matching the current filter in list order.
func (s *Store) VisibleTasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	visible := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if s.filter.Matches(t) {
			visible = append(visible, t)
		}
	}
	return visible
}

// Snapshot is a consistent read of the filter, the visible tasks and both counts.
type Snapshot struct {
	Filter         Filter
	Visible        []Task
	ActiveCount    int
	CompletedCount int
}

// Snapshot reads everything a view needs under a single lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Filter:  s.filter,
		Visible: make([]Task, 0, len(s.tasks)),
	}
	for _, t := range s.tasks {
		if t.Completed {
			snap.CompletedCount++
		} else {
			snap.ActiveCount++
		}
		if s.filter.Matches(t) {
			snap.Visible = append(snap.Visible, t)
		}
	}
	return snap
}

// Tasks returns the whole list in order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task{}, s.tasks...)
}

// ActiveCount counts incomplete tasks regardless of the filter.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

// CompletedCount counts completed tasks regardless of the filter.
func (s *Store) CompletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the full list. Must be called with mu held.
// Failures are logged; the in-memory list stays authoritative.
func (s *Store) persist(ctx context.Context) {
	if s.slot == nil {
		return
	}
	data, err := Encode(s.tasks)
	if err != nil {
		s.logger.Error("failed to encode task list", "key", s.key, "error", err)
		return
	}
	if err := s.slot.Put(ctx, s.key, data); err != nil {
		s.logger.Error("failed to persist task list", "key", s.key, "count", len(s.tasks), "error", err)
	}
}

// enqueue queues ev for delivery. Must be called with mu held.
func (s *Store) enqueue(ctx context.Context, ev Event) {
	s.pending = append(s.pending, pendingEvent{ctx: ctx, ev: ev})
}

// flush delivers queued events in the order their mutations were applied.
// Whichever caller holds notifyMu drains the whole queue, so an event is
// delivered before the call that queued it returns.
func (s *Store) flush() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		listeners := s.listeners
		s.mu.Unlock()

		for _, l := range listeners {
			l(next.ctx, next.ev)
		}
	}
}
