package board

import (
	"context"
	"log/slog"
	"sync"

	"taskdeck/client/internal/apiclient"
	"taskdeck/client/internal/logstore"
	"taskdeck/client/internal/plan"
	"taskdeck/client/internal/protocol"
	"taskdeck/client/internal/task"
	"taskdeck/client/internal/taskcache"
)

// API is the slice of the remote surface the board needs.
// *apiclient.Client satisfies it.
type API interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, req apiclient.CreateTaskRequest) (task.Task, error)
	UpdateTask(ctx context.Context, id string, req apiclient.UpdateTaskRequest) (task.Task, error)
	DeleteTask(ctx context.Context, id string) error
	StartTask(ctx context.Context, id string) (task.Task, error)
	CancelTask(ctx context.Context, id string) (task.Task, error)
	CompleteTask(ctx context.Context, id string) (task.Task, error)
	MergeTask(ctx context.Context, id string) error
}

type subscriber struct {
	id     int
	taskID string
	fn     func(protocol.Event)
}

// Sender writes client frames on the event channel.
// *channel.Manager satisfies it.
type Sender interface {
	Send(ctx context.Context, raw []byte) error
}

// Board is the runtime around the task cache: it feeds channel events into
// the cache, the plan subscriber table and the log store, fans task output
// out to per-task subscribers, and turns user intents into REST calls whose
// results are written back to the cache without waiting for the echo on
// the channel.
type Board struct {
	api      API
	cache    *taskcache.Cache
	planSubs *plan.SubscriberTable
	logs     *logstore.Store
	logger   *slog.Logger
	sender   Sender

	mu       sync.Mutex
	nextID   int
	logSubs  []subscriber
	progSubs []subscriber
}

type Option func(*Board)

// WithChannelSender lets the board announce per-task log interest on the
// channel. Without one, log events are still fanned out; the server just
// streams them unscoped.
func WithChannelSender(s Sender) Option {
	return func(b *Board) { b.sender = s }
}

// NewBoard wires the runtime. logs may be nil when persistence is not
// configured.
func NewBoard(api API, cache *taskcache.Cache, planSubs *plan.SubscriberTable, logs *logstore.Store, logger *slog.Logger, opts ...Option) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Board{
		api:      api,
		cache:    cache,
		planSubs: planSubs,
		logs:     logs,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Cache() *taskcache.Cache { return b.cache }

// Column is one rendered lane of the board.
type Column struct {
	Status task.Status
	Title  string
	Tasks  []task.Task
}

// Columns returns the board in display order, empty lanes included.
func (b *Board) Columns() []Column {
	byStatus := b.cache.ByStatus()
	cols := make([]Column, 0, len(task.ColumnOrder))
	for _, st := range task.ColumnOrder {
		cols = append(cols, Column{Status: st, Title: task.ColumnTitles[st], Tasks: byStatus[st]})
	}
	return cols
}

// Refresh replaces the cache with the server's task list. Called once on
// startup and again after every reconnect to drop tasks changed while the
// channel was down.
func (b *Board) Refresh(ctx context.Context) error {
	tasks, err := b.api.ListTasks(ctx)
	if err != nil {
		return err
	}
	b.cache.ReplaceAll(tasks)
	return nil
}

// HandleEvent routes one channel event. Plan events go to the session that
// owns them; everything else updates the cache, the log store, or the
// fan-out subscribers.
func (b *Board) HandleEvent(ev protocol.Event) {
	if b.planSubs != nil && b.planSubs.Dispatch(ev) {
		return
	}
	switch e := ev.(type) {
	case protocol.TaskUpdated:
		b.cache.Apply(ev)
	case protocol.TaskDeleted:
		b.cache.Apply(ev)
		if b.logs != nil {
			if err := b.logs.ClearTask(e.TaskID); err != nil {
				b.logger.Warn("clear task history failed", "task_id", e.TaskID, "error", err)
			}
		}
	case protocol.Log:
		if b.logs != nil {
			if err := b.logs.AppendLine(e.TaskID, e.Content, e.Stream); err != nil {
				b.logger.Warn("persist log line failed", "task_id", e.TaskID, "error", err)
			}
		}
		b.fanOutLogs(e.TaskID, ev)
	case protocol.ExecutionComplete:
		if b.logs != nil {
			if err := b.logs.RecordExecution(e.TaskID, e.Success); err != nil {
				b.logger.Warn("persist execution result failed", "task_id", e.TaskID, "error", err)
			}
		}
		b.fanOutLogs(e.TaskID, ev)
	case protocol.MergeStarted, protocol.MergeProgress, protocol.MergeComplete, protocol.MergeFailed,
		protocol.RebuildStarted, protocol.RebuildProgress, protocol.RebuildComplete, protocol.RebuildFailed:
		b.fanOutProgress(ev)
	}
}

// SubscribeLogs delivers log and execution_complete events for one task
// and announces the interest on the channel when a sender is wired.
func (b *Board) SubscribeLogs(taskID string, fn func(protocol.Event)) (cancel func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.logSubs = append(b.logSubs, subscriber{id: id, taskID: taskID, fn: fn})
	b.mu.Unlock()
	b.announce(protocol.EncodeSubscribe(taskID))
	return func() {
		b.mu.Lock()
		for i, sub := range b.logSubs {
			if sub.id == id {
				b.logSubs = append(b.logSubs[:i], b.logSubs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		b.announce(protocol.EncodeUnsubscribe(taskID))
	}
}

// announce is best-effort: a down channel just means the frame is lost
// and the server streams unscoped until reconnect.
func (b *Board) announce(raw []byte) {
	if b.sender == nil {
		return
	}
	if err := b.sender.Send(context.Background(), raw); err != nil {
		b.logger.Debug("channel announce failed", "error", err)
	}
}

// SubscribeProgress delivers merge and rebuild events.
func (b *Board) SubscribeProgress(fn func(protocol.Event)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.progSubs = append(b.progSubs, subscriber{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.progSubs {
			if sub.id == id {
				b.progSubs = append(b.progSubs[:i], b.progSubs[i+1:]...)
				return
			}
		}
	}
}

func (b *Board) fanOutLogs(taskID string, ev protocol.Event) {
	b.mu.Lock()
	subs := make([]subscriber, 0, len(b.logSubs))
	for _, sub := range b.logSubs {
		if sub.taskID == taskID {
			subs = append(subs, sub)
		}
	}
	b.mu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}

func (b *Board) fanOutProgress(ev protocol.Event) {
	b.mu.Lock()
	subs := make([]subscriber, len(b.progSubs))
	copy(subs, b.progSubs)
	b.mu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}

// MoveTask applies the lifecycle gate to a column move. Illegal moves are
// ignored without an error so a stray drag cannot disturb a running task.
// A legal move into in_progress starts the task; any other legal move is a
// plain status update.
func (b *Board) MoveTask(ctx context.Context, id string, to task.Status) error {
	current, ok := b.cache.Get(id)
	if !ok {
		return nil
	}
	if current.Status == to {
		return nil
	}
	if !task.CanTransition(current.Status, to) {
		b.logger.Debug("move rejected by lifecycle gate", "task_id", id, "from", current.Status, "to", to)
		return nil
	}
	var (
		updated task.Task
		err     error
	)
	if to == task.StatusInProgress {
		updated, err = b.api.StartTask(ctx, id)
	} else {
		status := to
		updated, err = b.api.UpdateTask(ctx, id, apiclient.UpdateTaskRequest{Status: &status})
	}
	if err != nil {
		return err
	}
	b.cache.Upsert(updated)
	return nil
}

func (b *Board) CreateTask(ctx context.Context, req apiclient.CreateTaskRequest) (task.Task, error) {
	created, err := b.api.CreateTask(ctx, req)
	if err != nil {
		return task.Task{}, err
	}
	b.cache.Upsert(created)
	return created, nil
}

func (b *Board) UpdateTask(ctx context.Context, id string, req apiclient.UpdateTaskRequest) (task.Task, error) {
	updated, err := b.api.UpdateTask(ctx, id, req)
	if err != nil {
		return task.Task{}, err
	}
	b.cache.Upsert(updated)
	return updated, nil
}

func (b *Board) DeleteTask(ctx context.Context, id string) error {
	if err := b.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	b.cache.Remove(id)
	return nil
}

func (b *Board) CancelTask(ctx context.Context, id string) error {
	updated, err := b.api.CancelTask(ctx, id)
	if err != nil {
		return err
	}
	b.cache.Upsert(updated)
	return nil
}

func (b *Board) CompleteTask(ctx context.Context, id string) error {
	updated, err := b.api.CompleteTask(ctx, id)
	if err != nil {
		return err
	}
	b.cache.Upsert(updated)
	return nil
}

// MergeTask only issues the request; progress and the final column move
// arrive as merge_* and task_updated events on the channel.
func (b *Board) MergeTask(ctx context.Context, id string) error {
	return b.api.MergeTask(ctx, id)
}
