package task

import (
	"testing"
	"time"
)

func validTask() Task {
	return Task{
		ID:        "0b7e4a52-7f4e-4f0b-9a2e-6f1d2c3b4a5e",
		Title:     "Fix bug",
		Status:    StatusTodo,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestValidate_AcceptsWellFormedTask(t *testing.T) {
	if err := validTask().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsBadID(t *testing.T) {
	tk := validTask()
	tk.ID = "not-a-uuid"
	if err := tk.Validate(); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestValidate_RejectsEmptyTitle(t *testing.T) {
	tk := validTask()
	tk.Title = "  "
	if err := tk.Validate(); err != ErrEmptyTitle {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestValidate_RejectsUnknownStatus(t *testing.T) {
	tk := validTask()
	tk.Status = Status("archived")
	if err := tk.Validate(); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestCanTransition_InProgressIsNeverALegalSource(t *testing.T) {
	for _, to := range ColumnOrder {
		if CanTransition(StatusInProgress, to) {
			t.Fatalf("in_progress -> %s should be illegal", to)
		}
	}
}

func TestCanTransition_InProgressOnlyFromTodo(t *testing.T) {
	for _, from := range ColumnOrder {
		got := CanTransition(from, StatusInProgress)
		want := from == StatusTodo
		if got != want {
			t.Fatalf("%s -> in_progress: got %v want %v", from, got, want)
		}
	}
}

func TestCanTransition_OtherPairsAreLegal(t *testing.T) {
	others := []Status{StatusTodo, StatusReview, StatusDone}
	for _, from := range others {
		for _, to := range others {
			if !CanTransition(from, to) {
				t.Fatalf("%s -> %s should be legal", from, to)
			}
		}
	}
}
