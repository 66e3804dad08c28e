package taskcache

import (
	"strings"
	"sync"

	"taskdeck/client/internal/protocol"
	"taskdeck/client/internal/task"
)

// Cache is the client's view of the task collection. Network events and
// optimistic REST results both funnel through the same Upsert/Remove
// semantics: replace in place when the id is present, prepend when it is
// not, remove-or-noop on delete. Events are applied in call order and the
// last write wins.
type Cache struct {
	mu    sync.RWMutex
	tasks []task.Task
}

func New() *Cache {
	return &Cache{}
}

// Apply folds one validated channel event into the collection. Events
// that do not touch the task collection are ignored.
func (c *Cache) Apply(ev protocol.Event) {
	if c == nil || ev == nil {
		return
	}
	switch e := ev.(type) {
	case protocol.TaskUpdated:
		c.Upsert(e.Task)
	case protocol.TaskDeleted:
		c.Remove(e.TaskID)
	}
}

func (c *Cache) Upsert(t task.Task) {
	if c == nil || strings.TrimSpace(t.ID) == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tasks {
		if c.tasks[i].ID == t.ID {
			c.tasks[i] = t
			return
		}
	}
	c.tasks = append([]task.Task{t}, c.tasks...)
}

func (c *Cache) Remove(id string) {
	if c == nil || strings.TrimSpace(id) == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return
		}
	}
}

// ReplaceAll installs a full authoritative listing, e.g. the initial
// REST fetch. Order is preserved as given.
func (c *Cache) ReplaceAll(tasks []task.Task) {
	if c == nil {
		return
	}
	out := make([]task.Task, len(tasks))
	copy(out, tasks)
	c.mu.Lock()
	c.tasks = out
	c.mu.Unlock()
}

func (c *Cache) Get(id string) (task.Task, bool) {
	if c == nil {
		return task.Task{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return c.tasks[i], true
		}
	}
	return task.Task{}, false
}

func (c *Cache) Snapshot() []task.Task {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.tasks) == 0 {
		return nil
	}
	out := make([]task.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// ByStatus groups the snapshot into board columns, preserving
// collection order within each column.
func (c *Cache) ByStatus() map[task.Status][]task.Task {
	out := map[task.Status][]task.Task{}
	for _, t := range c.Snapshot() {
		out[t.Status] = append(out[t.Status], t)
	}
	return out
}
