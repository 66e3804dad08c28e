package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type DiffChangeType string

const (
	DiffAdded    DiffChangeType = "added"
	DiffModified DiffChangeType = "modified"
	DiffDeleted  DiffChangeType = "deleted"
	DiffRenamed  DiffChangeType = "renamed"
)

type DiffFile struct {
	Path       string         `json:"path"`
	ChangeType DiffChangeType `json:"change_type"`
	Additions  int            `json:"additions"`
	Deletions  int            `json:"deletions"`
	Content    string         `json:"content"`
}

type DiffResponse struct {
	Files          []DiffFile `json:"files"`
	TotalAdditions int        `json:"total_additions"`
	TotalDeletions int        `json:"total_deletions"`
}

type PreviewStatus string

const (
	PreviewStarting PreviewStatus = "starting"
	PreviewRunning  PreviewStatus = "running"
	PreviewStopped  PreviewStatus = "stopped"
	PreviewError    PreviewStatus = "error"
)

func (s PreviewStatus) Valid() bool {
	switch s {
	case PreviewStarting, PreviewRunning, PreviewStopped, PreviewError:
		return true
	}
	return false
}

type PreviewInfo struct {
	TaskID       string        `json:"task_id"`
	BackendURL   string        `json:"backend_url"`
	FrontendURL  string        `json:"frontend_url"`
	BackendPort  int           `json:"backend_port"`
	FrontendPort int           `json:"frontend_port"`
	Status       PreviewStatus `json:"status"`
}

func (c *Client) TaskDiff(ctx context.Context, taskID string) (DiffResponse, error) {
	var out DiffResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(taskID)+"/diff", nil, &out); err != nil {
		return DiffResponse{}, err
	}
	return out, nil
}

func (c *Client) StartPreview(ctx context.Context, taskID string) (PreviewInfo, error) {
	return c.previewCall(ctx, http.MethodPost, previewPath(taskID))
}

func (c *Client) StopPreview(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, previewPath(taskID), nil, nil)
}

func (c *Client) PreviewStatusInfo(ctx context.Context, taskID string) (PreviewInfo, error) {
	return c.previewCall(ctx, http.MethodGet, previewPath(taskID))
}

func (c *Client) RestartPreviewServer(ctx context.Context, taskID, server string) (PreviewInfo, error) {
	return c.previewCall(ctx, http.MethodPost, previewPath(taskID)+"/restart/"+url.PathEscape(server))
}

func (c *Client) previewCall(ctx context.Context, method, path string) (PreviewInfo, error) {
	var out PreviewInfo
	if err := c.do(ctx, method, path, nil, &out); err != nil {
		return PreviewInfo{}, err
	}
	if !out.Status.Valid() {
		return PreviewInfo{}, fmt.Errorf("preview response: status %q is not recognized", out.Status)
	}
	return out, nil
}

func previewPath(taskID string) string {
	return "/api/tasks/" + url.PathEscape(taskID) + "/preview"
}
