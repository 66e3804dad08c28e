package preview

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskdeck/client/internal/apiclient"
)

const pollInterval = 5 * time.Second

// API is the slice of the remote surface preview tracking needs.
// *apiclient.Client satisfies it.
type API interface {
	StartPreview(ctx context.Context, taskID string) (apiclient.PreviewInfo, error)
	StopPreview(ctx context.Context, taskID string) error
	PreviewStatusInfo(ctx context.Context, taskID string) (apiclient.PreviewInfo, error)
	RestartPreviewServer(ctx context.Context, taskID, server string) (apiclient.PreviewInfo, error)
}

// Tracker follows the preview environment of the selected task. While a
// preview is known to be up it refreshes the status on an interval; a
// failed refresh means the preview went away and the state is cleared.
type Tracker struct {
	api      API
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	taskID  string
	info    *apiclient.PreviewInfo
	errText string
}

type Option func(*Tracker)

// WithPollInterval shortens the refresh interval in tests.
func WithPollInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

func NewTracker(api API, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		api:      api,
		logger:   logger,
		interval: pollInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Watch switches the tracked task and probes once so a preview that is
// already up shows immediately. An empty id detaches the tracker.
func (t *Tracker) Watch(ctx context.Context, taskID string) {
	id := strings.TrimSpace(taskID)
	t.mu.Lock()
	t.taskID = id
	t.info = nil
	t.errText = ""
	t.mu.Unlock()
	if id == "" {
		return
	}
	t.refresh(ctx, id)
}

func (t *Tracker) Start(ctx context.Context) error {
	id := t.trackedID()
	if id == "" {
		return nil
	}
	info, err := t.api.StartPreview(ctx, id)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.taskID != id {
		return nil
	}
	if err != nil {
		t.errText = err.Error()
		return err
	}
	t.info = &info
	t.errText = ""
	return nil
}

func (t *Tracker) Stop(ctx context.Context) error {
	id := t.trackedID()
	if id == "" {
		return nil
	}
	err := t.api.StopPreview(ctx, id)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.taskID != id {
		return nil
	}
	if err != nil {
		t.errText = err.Error()
		return err
	}
	t.info = nil
	t.errText = ""
	return nil
}

// RestartServer bounces one of the preview's dev servers and adopts the
// returned status.
func (t *Tracker) RestartServer(ctx context.Context, server string) error {
	id := t.trackedID()
	if id == "" {
		return nil
	}
	info, err := t.api.RestartPreviewServer(ctx, id, server)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.taskID != id {
		return nil
	}
	if err != nil {
		t.errText = err.Error()
		return err
	}
	t.info = &info
	t.errText = ""
	return nil
}

// Status returns a copy of the current preview info, or nil when no
// preview is known, plus the last start/stop error text.
func (t *Tracker) Status() (*apiclient.PreviewInfo, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.info == nil {
		return nil, t.errText
	}
	info := *t.info
	return &info, t.errText
}

// Run polls the preview status until ctx is done. Only tasks with a
// known-live preview are polled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		t.mu.Lock()
		id := t.taskID
		live := t.info != nil
		t.mu.Unlock()
		if id == "" || !live {
			continue
		}
		t.refresh(ctx, id)
	}
}

func (t *Tracker) trackedID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.taskID
}

func (t *Tracker) refresh(ctx context.Context, id string) {
	info, err := t.api.PreviewStatusInfo(ctx, id)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.taskID != id {
		return
	}
	if err != nil {
		t.logger.Debug("preview status probe failed", "task_id", id, "error", err)
		t.info = nil
		return
	}
	t.info = &info
}
