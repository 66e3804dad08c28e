package taskcache

import (
	"fmt"
	"testing"
	"time"

	"taskdeck/client/internal/protocol"
	"taskdeck/client/internal/task"
)

func mkTask(id, title string, status task.Status) task.Task {
	return task.Task{
		ID:        id,
		Title:     title,
		Status:    status,
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestApply_TaskUpdatedPrependsUnknownID(t *testing.T) {
	c := New()
	c.ReplaceAll([]task.Task{mkTask("a", "first", task.StatusTodo)})
	c.Apply(protocol.TaskUpdated{Task: mkTask("b", "second", task.StatusTodo)})

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(snap))
	}
	if snap[0].ID != "b" || snap[1].ID != "a" {
		t.Fatalf("expected new task prepended, got order %s,%s", snap[0].ID, snap[1].ID)
	}
}

func TestApply_TaskUpdatedReplacesInPlace(t *testing.T) {
	c := New()
	c.ReplaceAll([]task.Task{
		mkTask("a", "first", task.StatusTodo),
		mkTask("b", "second", task.StatusTodo),
		mkTask("c", "third", task.StatusTodo),
	})
	c.Apply(protocol.TaskUpdated{Task: mkTask("b", "second", task.StatusReview)})

	snap := c.Snapshot()
	if snap[1].ID != "b" || snap[1].Status != task.StatusReview {
		t.Fatalf("expected b replaced in place with review, got %+v", snap[1])
	}
	if snap[0].ID != "a" || snap[2].ID != "c" {
		t.Fatal("collection order changed on replace")
	}
}

func TestApply_ReplayedUpdateIsIdempotent(t *testing.T) {
	c := New()
	ev := protocol.TaskUpdated{Task: mkTask("a", "only", task.StatusInProgress)}
	c.Apply(ev)
	c.Apply(ev)
	if c.Len() != 1 {
		t.Fatalf("expected 1 task after replay, got %d", c.Len())
	}
}

func TestApply_OrderedUpdatesLastWriteWins(t *testing.T) {
	c := New()
	statuses := []task.Status{task.StatusTodo, task.StatusInProgress, task.StatusReview}
	for i, s := range statuses {
		c.Apply(protocol.TaskUpdated{Task: mkTask("a", fmt.Sprintf("rev-%d", i), s)})
	}
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("task missing")
	}
	if got.Status != task.StatusReview || got.Title != "rev-2" {
		t.Fatalf("expected last write to win, got %+v", got)
	}
}

func TestApply_TaskDeletedRemoves(t *testing.T) {
	c := New()
	c.ReplaceAll([]task.Task{mkTask("a", "first", task.StatusTodo), mkTask("b", "second", task.StatusDone)})
	c.Apply(protocol.TaskDeleted{TaskID: "a"})
	if _, ok := c.Get("a"); ok {
		t.Fatal("task a should be gone")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", c.Len())
	}
}

func TestApply_DeleteUnknownIDIsNoop(t *testing.T) {
	c := New()
	c.ReplaceAll([]task.Task{mkTask("a", "first", task.StatusTodo)})
	c.Apply(protocol.TaskDeleted{TaskID: "ghost"})
	if c.Len() != 1 {
		t.Fatalf("expected untouched collection, got %d tasks", c.Len())
	}
}

func TestApply_NonCollectionEventsAreIgnored(t *testing.T) {
	c := New()
	c.ReplaceAll([]task.Task{mkTask("a", "first", task.StatusTodo)})
	c.Apply(protocol.Log{TaskID: "a", Content: "x", Stream: "stdout"})
	c.Apply(protocol.Ping{})
	if c.Len() != 1 {
		t.Fatalf("expected untouched collection, got %d tasks", c.Len())
	}
}

func TestByStatus_GroupsPreservingOrder(t *testing.T) {
	c := New()
	c.ReplaceAll([]task.Task{
		mkTask("a", "one", task.StatusTodo),
		mkTask("b", "two", task.StatusReview),
		mkTask("c", "three", task.StatusTodo),
	})
	cols := c.ByStatus()
	todo := cols[task.StatusTodo]
	if len(todo) != 2 || todo[0].ID != "a" || todo[1].ID != "c" {
		t.Fatalf("unexpected todo column: %+v", todo)
	}
	if len(cols[task.StatusReview]) != 1 {
		t.Fatalf("unexpected review column: %+v", cols[task.StatusReview])
	}
}
