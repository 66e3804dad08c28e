package task

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

var ColumnOrder = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

var ColumnTitles = map[Status]string{
	StatusTodo:       "To Do",
	StatusInProgress: "In Progress",
	StatusReview:     "Review",
	StatusDone:       "Done",
}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	Status       Status    `json:"status"`
	ErrorMessage *string   `json:"error_message"`
	BranchName   *string   `json:"branch_name"`
	WorktreePath *string   `json:"worktree_path"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	ErrInvalidID     = errors.New("task id is not a valid uuid")
	ErrEmptyTitle    = errors.New("task title is required")
	ErrInvalidStatus = errors.New("task status is not recognized")
)

func (t Task) Validate() error {
	if _, err := uuid.Parse(strings.TrimSpace(t.ID)); err != nil {
		return ErrInvalidID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// CanTransition reports whether a user-requested status move is legal.
// A running task is retired by the remote executor, never by the user,
// so in_progress is only reachable from todo and never leavable here.
func CanTransition(from, to Status) bool {
	if from == StatusInProgress {
		return false
	}
	if to == StatusInProgress {
		return from == StatusTodo
	}
	return true
}
