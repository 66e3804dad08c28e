package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"taskdeck/client/internal/task"
)

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Status      *task.Status `json:"status,omitempty"`
}

func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var out struct {
		Tasks []task.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Tasks {
		if err := out.Tasks[i].Validate(); err != nil {
			return nil, fmt.Errorf("task %d in listing: %w", i, err)
		}
	}
	return out.Tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (task.Task, error) {
	return c.taskCall(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil)
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (task.Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/api/tasks", req)
}

func (c *Client) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (task.Task, error) {
	return c.taskCall(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), req)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) StartTask(ctx context.Context, id string) (task.Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/start", nil)
}

func (c *Client) CancelTask(ctx context.Context, id string) (task.Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *Client) CompleteTask(ctx context.Context, id string) (task.Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/complete", nil)
}

// MergeTask only kicks the merge off; progress and the final task state
// arrive as merge_* and task_updated events on the channel.
func (c *Client) MergeTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/merge", nil, nil)
}

func (c *Client) taskCall(ctx context.Context, method, path string, in any) (task.Task, error) {
	var out task.Task
	if err := c.do(ctx, method, path, in, &out); err != nil {
		return task.Task{}, err
	}
	if err := out.Validate(); err != nil {
		return task.Task{}, fmt.Errorf("task response: %w", err)
	}
	return out, nil
}
