package orchestrator

import (
	"context"
	"slices"
	"sync"
	"time"
)

// TaskInfo describes one in-flight adapter call.
type TaskInfo struct {
	ID         uint64
	Op         string
	ContactIDs []int64
	StartedAt  time.Time
}

type task struct {
	info   TaskInfo
	cancel context.CancelFunc
}

// TaskTracker registers every in-flight adapter call under its own
// cancellable context so it can be aborted explicitly. Closing a
// confirmation dialog never touches it.
type TaskTracker struct {
	mu    sync.Mutex
	next  uint64
	tasks map[uint64]task
}

// NewTaskTracker creates an empty tracker.
func NewTaskTracker() *TaskTracker {
	return &TaskTracker{tasks: make(map[uint64]task)}
}

// Start registers a task covering contactIDs. The returned done func must
// be called when the call returns; it releases the context.
func (t *TaskTracker) Start(parent context.Context, op string, contactIDs ...int64) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	t.next++
	id := t.next
	t.tasks[id] = task{
		info: TaskInfo{
			ID:         id,
			Op:         op,
			ContactIDs: slices.Clone(contactIDs),
			StartedAt:  time.Now(),
		},
		cancel: cancel,
	}
	t.mu.Unlock()

	return ctx, func() {
		t.mu.Lock()
		delete(t.tasks, id)
		t.mu.Unlock()
		cancel()
	}
}

// Abort cancels every in-flight task that covers contactID and returns how
// many were cancelled.
func (t *TaskTracker) Abort(contactID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, tk := range t.tasks {
		if slices.Contains(tk.info.ContactIDs, contactID) {
			tk.cancel()
			n++
		}
	}
	return n
}

// AbortAll cancels every in-flight task.
func (t *TaskTracker) AbortAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tk := range t.tasks {
		tk.cancel()
	}
	return len(t.tasks)
}

// InFlight lists the running tasks, oldest first.
func (t *TaskTracker) InFlight() []TaskInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TaskInfo, 0, len(t.tasks))
	for _, tk := range t.tasks {
		out = append(out, tk.info)
	}
	slices.SortFunc(out, func(a, b TaskInfo) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of running tasks.
func (t *TaskTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks)
}
