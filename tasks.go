package concurrent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskHandle describes a façade call in flight.
type TaskHandle struct {
	ID      string
	Method  Method
	Started time.Time
}

// TaskRegistry tracks in-flight façade calls by id. Writers take the lock
// exclusively, readers share it.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]TaskHandle
}

// NewTaskRegistry returns an empty registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]TaskHandle)}
}

// start registers a new task and returns its handle.
func (r *TaskRegistry) start(m Method) TaskHandle {
	h := TaskHandle{ID: uuid.NewString(), Method: m, Started: time.Now()}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[h.ID] = h
	return h
}

// finish removes the task with the given id.
func (r *TaskRegistry) finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Len returns the number of registered tasks.
func (r *TaskRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Snapshot returns a copy of the registered handles.
func (r *TaskRegistry) Snapshot() []TaskHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TaskHandle, 0, len(r.tasks))
	for _, h := range r.tasks {
		out = append(out, h)
	}
	return out
}
