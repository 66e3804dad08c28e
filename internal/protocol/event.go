package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"taskdeck/client/internal/task"
)

type EventType string

const (
	EventTaskUpdated       EventType = "task_updated"
	EventTaskDeleted       EventType = "task_deleted"
	EventLog               EventType = "log"
	EventExecutionComplete EventType = "execution_complete"
	EventPing              EventType = "ping"
	EventPong              EventType = "pong"
	EventMergeStarted      EventType = "merge_started"
	EventMergeProgress     EventType = "merge_progress"
	EventMergeComplete     EventType = "merge_complete"
	EventMergeFailed       EventType = "merge_failed"
	EventRebuildStarted    EventType = "rebuild_started"
	EventRebuildProgress   EventType = "rebuild_progress"
	EventRebuildComplete   EventType = "rebuild_complete"
	EventRebuildFailed     EventType = "rebuild_failed"
	EventPlanQuestions     EventType = "plan_questions"
	EventPlanSummary       EventType = "plan_summary"
	EventPlanError         EventType = "plan_error"
	EventPlanOutput        EventType = "plan_output"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingField     = errors.New("event payload is missing a required field")
)

// Event is one validated server-originated message.
type Event interface {
	Type() EventType
}

type TaskUpdated struct {
	Task task.Task `json:"task"`
}

func (TaskUpdated) Type() EventType { return EventTaskUpdated }

type TaskDeleted struct {
	TaskID string `json:"task_id"`
}

func (TaskDeleted) Type() EventType { return EventTaskDeleted }

type Log struct {
	TaskID  string `json:"task_id"`
	Content string `json:"content"`
	Stream  string `json:"stream"`
}

func (Log) Type() EventType { return EventLog }

type ExecutionComplete struct {
	TaskID  string `json:"task_id"`
	Success bool   `json:"success"`
}

func (ExecutionComplete) Type() EventType { return EventExecutionComplete }

type Ping struct{}

func (Ping) Type() EventType { return EventPing }

type Pong struct{}

func (Pong) Type() EventType { return EventPong }

type MergeStarted struct {
	TaskID string `json:"task_id"`
}

func (MergeStarted) Type() EventType { return EventMergeStarted }

type MergeProgress struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func (MergeProgress) Type() EventType { return EventMergeProgress }

type MergeComplete struct {
	TaskID  string `json:"task_id"`
	Commit  string `json:"commit"`
	Message string `json:"message"`
}

func (MergeComplete) Type() EventType { return EventMergeComplete }

type MergeFailed struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

func (MergeFailed) Type() EventType { return EventMergeFailed }

type RebuildStarted struct{}

func (RebuildStarted) Type() EventType { return EventRebuildStarted }

type RebuildProgress struct {
	Message string `json:"message"`
}

func (RebuildProgress) Type() EventType { return EventRebuildProgress }

type RebuildComplete struct{}

func (RebuildComplete) Type() EventType { return EventRebuildComplete }

type RebuildFailed struct {
	Error string `json:"error"`
}

func (RebuildFailed) Type() EventType { return EventRebuildFailed }

type QuestionOption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

type Question struct {
	Index       int              `json:"index"`
	Question    string           `json:"question"`
	Header      string           `json:"header"`
	Options     []QuestionOption `json:"options"`
	MultiSelect bool             `json:"multi_select"`
	ToolUseID   string           `json:"tool_use_id"`
}

type PlanQuestions struct {
	SessionID string     `json:"session_id"`
	Questions []Question `json:"questions"`
}

func (PlanQuestions) Type() EventType { return EventPlanQuestions }

type PlanSummary struct {
	SessionID string `json:"session_id"`
	Summary   string `json:"summary"`
}

func (PlanSummary) Type() EventType { return EventPlanSummary }

type PlanError struct {
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

func (PlanError) Type() EventType { return EventPlanError }

type PlanOutput struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

func (PlanOutput) Type() EventType { return EventPlanOutput }

// Decode validates a raw frame against the closed event set. Anything
// outside the set, or with a malformed payload, is rejected whole; the
// decoder never fills in or coerces fields it cannot validate.
func Decode(raw []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch EventType(envelope.Type) {
	case EventTaskUpdated:
		var ev TaskUpdated
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode task_updated: %w", err)
		}
		if err := ev.Task.Validate(); err != nil {
			return nil, fmt.Errorf("task_updated: %w", err)
		}
		return ev, nil
	case EventTaskDeleted:
		var ev TaskDeleted
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode task_deleted: %w", err)
		}
		if strings.TrimSpace(ev.TaskID) == "" {
			return nil, fmt.Errorf("task_deleted task_id: %w", ErrMissingField)
		}
		return ev, nil
	case EventLog:
		var ev Log
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode log: %w", err)
		}
		if strings.TrimSpace(ev.TaskID) == "" {
			return nil, fmt.Errorf("log task_id: %w", ErrMissingField)
		}
		if strings.TrimSpace(ev.Stream) == "" {
			return nil, fmt.Errorf("log stream: %w", ErrMissingField)
		}
		return ev, nil
	case EventExecutionComplete:
		var ev ExecutionComplete
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode execution_complete: %w", err)
		}
		if strings.TrimSpace(ev.TaskID) == "" {
			return nil, fmt.Errorf("execution_complete task_id: %w", ErrMissingField)
		}
		return ev, nil
	case EventPing:
		return Ping{}, nil
	case EventPong:
		return Pong{}, nil
	case EventMergeStarted:
		var ev MergeStarted
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode merge_started: %w", err)
		}
		if strings.TrimSpace(ev.TaskID) == "" {
			return nil, fmt.Errorf("merge_started task_id: %w", ErrMissingField)
		}
		return ev, nil
	case EventMergeProgress:
		var ev MergeProgress
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode merge_progress: %w", err)
		}
		if strings.TrimSpace(ev.TaskID) == "" {
			return nil, fmt.Errorf("merge_progress task_id: %w", ErrMissingField)
		}
		return ev, nil
	case EventMergeComplete:
		var ev MergeComplete
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode merge_complete: %w", err)
		}
		if strings.TrimSpace(ev.TaskID) == "" {
			return nil, fmt.Errorf("merge_complete task_id: %w", ErrMissingField)
		}
		return ev, nil
	case EventMergeFailed:
		var ev MergeFailed
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode merge_failed: %w", err)
		}
		if strings.TrimSpace(ev.TaskID) == "" {
			return nil, fmt.Errorf("merge_failed task_id: %w", ErrMissingField)
		}
		return ev, nil
	case EventRebuildStarted:
		return RebuildStarted{}, nil
	case EventRebuildProgress:
		var ev RebuildProgress
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode rebuild_progress: %w", err)
		}
		return ev, nil
	case EventRebuildComplete:
		return RebuildComplete{}, nil
	case EventRebuildFailed:
		var ev RebuildFailed
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode rebuild_failed: %w", err)
		}
		return ev, nil
	case EventPlanQuestions:
		var ev PlanQuestions
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode plan_questions: %w", err)
		}
		if strings.TrimSpace(ev.SessionID) == "" {
			return nil, fmt.Errorf("plan_questions session_id: %w", ErrMissingField)
		}
		for _, q := range ev.Questions {
			if q.Index < 0 {
				return nil, fmt.Errorf("plan_questions question index %d: %w", q.Index, ErrMissingField)
			}
			if strings.TrimSpace(q.Question) == "" {
				return nil, fmt.Errorf("plan_questions question text: %w", ErrMissingField)
			}
		}
		return ev, nil
	case EventPlanSummary:
		var ev PlanSummary
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode plan_summary: %w", err)
		}
		if strings.TrimSpace(ev.SessionID) == "" {
			return nil, fmt.Errorf("plan_summary session_id: %w", ErrMissingField)
		}
		return ev, nil
	case EventPlanError:
		var ev PlanError
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode plan_error: %w", err)
		}
		if strings.TrimSpace(ev.SessionID) == "" {
			return nil, fmt.Errorf("plan_error session_id: %w", ErrMissingField)
		}
		return ev, nil
	case EventPlanOutput:
		var ev PlanOutput
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode plan_output: %w", err)
		}
		if strings.TrimSpace(ev.SessionID) == "" {
			return nil, fmt.Errorf("plan_output session_id: %w", ErrMissingField)
		}
		return ev, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, envelope.Type)
}
