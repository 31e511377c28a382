package task_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/todoflow/internal/domain/task"
	"github.com/rpggio/todoflow/internal/repository"
	"github.com/rpggio/todoflow/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memorySlot is a map-backed task.Slot that counts writes.
type memorySlot struct {
	mu     sync.Mutex
	values map[string][]byte
	puts   int
}

func newMemorySlot() *memorySlot {
	return &memorySlot{values: make(map[string][]byte)}
}

func (m *memorySlot) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (m *memorySlot) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	m.puts++
	return nil
}

func (m *memorySlot) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func newTestStore(t *testing.T, slot task.Slot) *task.Store {
	t.Helper()
	n := 0
	return task.NewStore(context.Background(), task.StoreConfig{
		Slot: slot,
		NewID: func() string {
			n++
			return fmt.Sprintf("task-%d", n)
		},
		Clock: func() time.Time {
			return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
		},
	})
}

func texts(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Text)
	}
	return out
}

func TestStore_InitializesEmpty(t *testing.T) {
	store := newTestStore(t, newMemorySlot())

	require.Empty(t, store.Tasks())
	require.Empty(t, store.VisibleTasks())
	require.Equal(t, 0, store.ActiveCount())
	require.Equal(t, 0, store.CompletedCount())
	require.Equal(t, task.FilterAll, store.Filter())
}

func TestStore_Add(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	store := newTestStore(t, slot)

	added := store.Add(ctx, "  Test todo  ")
	require.NotNil(t, added)
	require.Equal(t, "Test todo", added.Text)
	require.False(t, added.Completed)
	require.NotEmpty(t, added.ID)
	require.Equal(t, time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), added.CreatedAt)

	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, *added, tasks[0])
	require.Equal(t, 1, store.ActiveCount())
	require.Equal(t, 1, slot.putCount())
}

func TestStore_AddAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemorySlot())

	store.Add(ctx, "one")
	store.Add(ctx, "two")
	store.Add(ctx, "three")

	require.Equal(t, []string{"one", "two", "three"}, texts(store.Tasks()))
}

func TestStore_AddIgnoresBlankText(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	store := newTestStore(t, slot)

	for _, text := range []string{"", "   ", "\t\n"} {
		require.Nil(t, store.Add(ctx, text))
	}
	require.Empty(t, store.Tasks())
	require.Equal(t, 0, slot.putCount())
}

func TestStore_AddGeneratesUniqueIDs(t *testing.T) {
	ctx := context.Background()
	store := task.NewStore(ctx, task.StoreConfig{Slot: newMemorySlot()})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		added := store.Add(ctx, fmt.Sprintf("task %d", i))
		require.False(t, seen[added.ID], "duplicate id %s", added.ID)
		seen[added.ID] = true
	}
}

func TestStore_Toggle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemorySlot())
	added := store.Add(ctx, "Test todo")

	store.Toggle(ctx, added.ID)
	require.True(t, store.Tasks()[0].Completed)
	require.Equal(t, 0, store.ActiveCount())
	require.Equal(t, 1, store.CompletedCount())

	store.Toggle(ctx, added.ID)
	require.False(t, store.Tasks()[0].Completed)
	require.Equal(t, 1, store.ActiveCount())
	require.Equal(t, 0, store.CompletedCount())
}

func TestStore_ToggleUnknownID(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	store := newTestStore(t, slot)
	store.Add(ctx, "Test todo")
	before := store.Tasks()

	store.Toggle(ctx, "missing")
	require.Equal(t, before, store.Tasks())
	require.Equal(t, 1, slot.putCount())
}

func TestStore_Edit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemorySlot())
	added := store.Add(ctx, "Original text")

	store.Edit(ctx, added.ID, "  Updated text ")
	require.Equal(t, "Updated text", store.Tasks()[0].Text)
	require.Equal(t, added.ID, store.Tasks()[0].ID)
	require.Equal(t, added.CreatedAt, store.Tasks()[0].CreatedAt)
}

func TestStore_EditIgnoresBlankAndUnchangedText(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	store := newTestStore(t, slot)
	added := store.Add(ctx, "Original text")

	store.Edit(ctx, added.ID, "")
	store.Edit(ctx, added.ID, "   ")
	store.Edit(ctx, added.ID, " Original text ")
	store.Edit(ctx, "missing", "new")

	require.Equal(t, "Original text", store.Tasks()[0].Text)
	require.Equal(t, 1, slot.putCount())
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemorySlot())
	first := store.Add(ctx, "one")
	store.Add(ctx, "two")

	store.Remove(ctx, "missing")
	require.Len(t, store.Tasks(), 2)

	store.Remove(ctx, first.ID)
	require.Equal(t, []string{"two"}, texts(store.Tasks()))

	store.Remove(ctx, first.ID)
	require.Len(t, store.Tasks(), 1)
}

func TestStore_ClearCompleted(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	store := newTestStore(t, slot)
	one := store.Add(ctx, "Todo 1")
	store.Add(ctx, "Todo 2")
	three := store.Add(ctx, "Todo 3")
	store.Add(ctx, "Todo 4")

	store.Toggle(ctx, one.ID)
	store.Toggle(ctx, three.ID)
	require.Equal(t, 2, store.CompletedCount())

	store.ClearCompleted(ctx)
	require.Equal(t, []string{"Todo 2", "Todo 4"}, texts(store.Tasks()))
	require.Equal(t, 0, store.CompletedCount())

	writes := slot.putCount()
	store.ClearCompleted(ctx)
	require.Equal(t, []string{"Todo 2", "Todo 4"}, texts(store.Tasks()))
	require.Equal(t, writes, slot.putCount())
}

func TestStore_FilterByStatus(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	store := newTestStore(t, slot)
	store.Add(ctx, "Active todo")
	done := store.Add(ctx, "Completed todo")
	store.Toggle(ctx, done.ID)
	writes := slot.putCount()

	require.Equal(t, []string{"Active todo", "Completed todo"}, texts(store.VisibleTasks()))

	store.SetFilter(task.FilterActive)
	require.Equal(t, task.FilterActive, store.Filter())
	require.Equal(t, []string{"Active todo"}, texts(store.VisibleTasks()))
	require.Equal(t, 1, store.ActiveCount())
	require.Equal(t, 1, store.CompletedCount())

	store.SetFilter(task.FilterCompleted)
	require.Equal(t, []string{"Completed todo"}, texts(store.VisibleTasks()))

	store.SetFilter(task.Filter("bogus"))
	require.Equal(t, task.FilterCompleted, store.Filter())

	require.Len(t, store.Tasks(), 2)
	require.Equal(t, writes, slot.putCount(), "filter changes are not persisted")
}

func TestStore_CountsMatchTotal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemorySlot())

	var ids []string
	for i := 0; i < 7; i++ {
		ids = append(ids, store.Add(ctx, fmt.Sprintf("task %d", i)).ID)
	}
	for i, id := range ids {
		if i%3 == 0 {
			store.Toggle(ctx, id)
		}
	}
	store.SetFilter(task.FilterActive)
	require.Equal(t, 3, store.CompletedCount())
	require.Equal(t, 4, store.ActiveCount())
	require.Equal(t, len(store.Tasks()), store.ActiveCount()+store.CompletedCount())

	store.Remove(ctx, ids[0])
	store.ClearCompleted(ctx)
	require.Equal(t, len(store.Tasks()), store.ActiveCount()+store.CompletedCount())
}

func TestStore_ReturnedTasksAreCopies(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemorySlot())
	added := store.Add(ctx, "Buy milk")
	added.Text = "changed"

	tasks := store.Tasks()
	tasks[0].Completed = true
	visible := store.VisibleTasks()
	visible[0].Text = "changed again"

	require.Equal(t, "Buy milk", store.Tasks()[0].Text)
	require.False(t, store.Tasks()[0].Completed)
}

func TestStore_Scenario(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemorySlot())

	store.Add(ctx, "Buy milk")
	walk := store.Add(ctx, "Walk dog")
	store.Toggle(ctx, walk.ID)

	require.Equal(t, 1, store.ActiveCount())
	require.Equal(t, 1, store.CompletedCount())

	store.SetFilter(task.FilterActive)
	require.Equal(t, []string{"Buy milk"}, texts(store.VisibleTasks()))
}

func TestStore_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	store := newTestStore(t, slot)

	store.Add(ctx, "task1")
	two := store.Add(ctx, "task2")
	store.Add(ctx, "task3")
	store.Toggle(ctx, two.ID)

	reloaded := task.NewStore(ctx, task.StoreConfig{Slot: slot})
	got := reloaded.Tasks()
	require.Equal(t, []string{"task1", "task2", "task3"}, texts(got))
	require.Equal(t, []bool{false, true, false}, []bool{got[0].Completed, got[1].Completed, got[2].Completed})
	for i, want := range store.Tasks() {
		require.Equal(t, want.ID, got[i].ID)
		require.True(t, want.CreatedAt.Equal(got[i].CreatedAt))
	}
}

func TestStore_PersistsUnderKey(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	store := task.NewStore(ctx, task.StoreConfig{Slot: slot})
	store.Add(ctx, "Persistent todo")

	data, err := slot.Get(ctx, task.DefaultKey)
	require.NoError(t, err)
	tasks, err := task.Decode(data)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "Persistent todo", tasks[0].Text)

	other := task.NewStore(ctx, task.StoreConfig{Slot: slot, Key: "work"})
	require.Empty(t, other.Tasks())
}

func TestStore_LoadsStoredTasks(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	require.NoError(t, slot.Put(ctx, task.DefaultKey, []byte(
		`[{"id":"test-id","text":"Loaded todo","completed":false,"createdAt":"2026-10-18T09:00:00.000Z"}]`)))

	store := task.NewStore(ctx, task.StoreConfig{Slot: slot})
	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, "test-id", tasks[0].ID)
	require.Equal(t, "Loaded todo", tasks[0].Text)
	require.True(t, tasks[0].CreatedAt.Equal(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)))
}

func TestStore_DiscardsInvalidStoredData(t *testing.T) {
	blobs := map[string]string{
		"invalid json":    `{not json`,
		"object":          `{"id":"a","text":"b"}`,
		"array of values": `[1, 2, 3]`,
		"missing id":      `[{"text":"x","completed":false}]`,
		"blank text":      `[{"id":"a","text":"  ","completed":false}]`,
		"duplicate ids":   `[{"id":"a","text":"x"},{"id":"a","text":"y"}]`,
		"bad timestamp":   `[{"id":"a","text":"x","createdAt":"yesterday"}]`,
		"bad completed":   `[{"id":"a","text":"x","completed":"yes"}]`,
	}

	for name, blob := range blobs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			slot := newMemorySlot()
			require.NoError(t, slot.Put(ctx, task.DefaultKey, []byte(blob)))

			var store *task.Store
			require.NotPanics(t, func() {
				store = task.NewStore(ctx, task.StoreConfig{Slot: slot})
			})
			require.Empty(t, store.Tasks())

			store.Add(ctx, "fresh start")
			require.Len(t, store.Tasks(), 1)
		})
	}
}

func TestStore_ReadErrorStartsEmpty(t *testing.T) {
	ctx := context.Background()
	slot := &mocks.Slot{}
	slot.On("Get", ctx, task.DefaultKey).Return(nil, errors.New("connection refused"))

	store := task.NewStore(ctx, task.StoreConfig{Slot: slot})
	require.Empty(t, store.Tasks())
	slot.AssertExpectations(t)
}

func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	slot := &mocks.Slot{}
	slot.On("Get", ctx, task.DefaultKey).Return(nil, repository.ErrNotFound)
	slot.On("Put", ctx, task.DefaultKey, mock.Anything).Return(errors.New("quota exceeded"))

	store := task.NewStore(ctx, task.StoreConfig{Slot: slot})
	added := store.Add(ctx, "Buy milk")
	require.NotNil(t, added)
	store.Toggle(ctx, added.ID)

	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	require.True(t, tasks[0].Completed)
	slot.AssertNumberOfCalls(t, "Put", 2)
}

func TestStore_WritesFullListEachTime(t *testing.T) {
	ctx := context.Background()
	slot := &mocks.Slot{}
	slot.On("Get", ctx, task.DefaultKey).Return(nil, repository.ErrNotFound)

	var written [][]task.Task
	slot.On("Put", ctx, task.DefaultKey, mock.Anything).Run(func(args mock.Arguments) {
		tasks, err := task.Decode(args.Get(2).([]byte))
		require.NoError(t, err)
		written = append(written, tasks)
	}).Return(nil)

	store := newTestStore(t, slot)
	store.Add(ctx, "one")
	store.Add(ctx, "two")
	store.Remove(ctx, "task-1")

	require.Len(t, written, 3)
	require.Equal(t, []string{"one"}, texts(written[0]))
	require.Equal(t, []string{"one", "two"}, texts(written[1]))
	require.Equal(t, []string{"two"}, texts(written[2]))
}

func TestStore_NotifiesListeners(t *testing.T) {
	ctx := context.Background()
	var events []task.Event
	store := task.NewStore(ctx, task.StoreConfig{
		Slot: newMemorySlot(),
		Listeners: []task.Listener{func(_ context.Context, ev task.Event) {
			events = append(events, ev)
		}},
	})

	added := store.Add(ctx, "Buy milk")
	store.Add(ctx, "   ")
	store.Toggle(ctx, added.ID)
	store.Toggle(ctx, "missing")
	store.Edit(ctx, added.ID, "Buy oat milk")
	store.Edit(ctx, added.ID, "Buy oat milk")
	store.ClearCompleted(ctx)
	store.ClearCompleted(ctx)
	store.SetFilter(task.FilterActive)

	types := make([]task.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	require.Equal(t, []task.EventType{
		task.EventAdded,
		task.EventToggled,
		task.EventEdited,
		task.EventCompletedCleared,
	}, types)
	require.True(t, events[1].Task.Completed)
	require.Equal(t, "Buy milk", events[2].PreviousText)
	require.Equal(t, "Buy oat milk", events[2].Task.Text)
	require.Equal(t, 1, events[3].Removed)
}

func TestStore_ListenerMayReadStore(t *testing.T) {
	ctx := context.Background()
	store := task.NewStore(ctx, task.StoreConfig{Slot: newMemorySlot()})

	var seen int
	store.Subscribe(func(_ context.Context, ev task.Event) {
		seen = len(store.Tasks())
	})
	store.Add(ctx, "Buy milk")
	require.Equal(t, 1, seen)
}

func TestStore_ConcurrentCommands(t *testing.T) {
	ctx := context.Background()
	store := task.NewStore(ctx, task.StoreConfig{Slot: newMemorySlot()})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			added := store.Add(ctx, fmt.Sprintf("task %d", i))
			store.Toggle(ctx, added.ID)
			_ = store.VisibleTasks()
		}(i)
	}
	wg.Wait()

	require.Len(t, store.Tasks(), 20)
	require.Equal(t, 20, store.CompletedCount())
}

func TestStore_SnapshotIsConsistent(t *testing.T) {
	ctx := context.Background()
	store := task.NewStore(ctx, task.StoreConfig{Slot: newMemorySlot()})
	added := store.Add(ctx, "flip me")
	store.Add(ctx, "stay active")
	store.SetFilter(task.FilterActive)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				store.Toggle(ctx, added.ID)
			}
		}
	}()

	for i := 0; i < 5000; i++ {
		snap := store.Snapshot()
		require.Equal(t, task.FilterActive, snap.Filter)
		require.Len(t, snap.Visible, snap.ActiveCount)
		require.Equal(t, 2, snap.ActiveCount+snap.CompletedCount)
		for _, tk := range snap.Visible {
			require.False(t, tk.Completed)
		}
	}
	close(done)
	wg.Wait()
}

func TestStore_SnapshotMatchesAccessors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemorySlot())
	a := store.Add(ctx, "A")
	store.Add(ctx, "B")
	store.Toggle(ctx, a.ID)
	store.SetFilter(task.FilterCompleted)

	snap := store.Snapshot()
	require.Equal(t, store.Filter(), snap.Filter)
	require.Equal(t, store.VisibleTasks(), snap.Visible)
	require.Equal(t, store.ActiveCount(), snap.ActiveCount)
	require.Equal(t, store.CompletedCount(), snap.CompletedCount)
}

func TestStore_ListenersSeeMutationOrder(t *testing.T) {
	ctx := context.Background()
	store := task.NewStore(ctx, task.StoreConfig{Slot: newMemorySlot()})
	added := store.Add(ctx, "flip me")

	var mu sync.Mutex
	var states []bool
	store.Subscribe(func(_ context.Context, ev task.Event) {
		_ = store.Tasks()
		mu.Lock()
		states = append(states, ev.Task.Completed)
		mu.Unlock()
	})

	const toggles = 400
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < toggles/8; j++ {
				store.Toggle(ctx, added.ID)
			}
		}()
	}
	wg.Wait()

	require.Len(t, states, toggles)
	for i, completed := range states {
		require.Equal(t, i%2 == 0, completed, "event %d out of order", i)
	}
	require.False(t, store.Tasks()[0].Completed)
}

func TestStore_EventDeliveredBeforeReturn(t *testing.T) {
	ctx := context.Background()
	store := task.NewStore(ctx, task.StoreConfig{Slot: newMemorySlot()})

	var mu sync.Mutex
	delivered := map[string]bool{}
	store.Subscribe(func(_ context.Context, ev task.Event) {
		mu.Lock()
		delivered[ev.Task.ID] = true
		mu.Unlock()
	})

	missed := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			added := store.Add(ctx, fmt.Sprintf("task %d", i))
			mu.Lock()
			if !delivered[added.ID] {
				missed++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	require.Zero(t, missed)
}

func TestStore_WithoutSlot(t *testing.T) {
	ctx := context.Background()
	store := task.NewStore(ctx, task.StoreConfig{})
	added := store.Add(ctx, "ephemeral")
	require.NotNil(t, added)
	require.Len(t, store.Tasks(), 1)
}
