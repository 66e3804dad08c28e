package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskdeck/client/internal/task"
)

const taskBody = `{
	"id": "0b7e4a52-7f4e-4f0b-9a2e-6f1d2c3b4a5e",
	"title": "Fix bug",
	"description": null,
	"status": "todo",
	"error_message": null,
	"branch_name": null,
	"worktree_path": null,
	"created_at": "2026-08-01T10:00:00Z",
	"updated_at": "2026-08-01T10:00:00Z"
}`

func TestListTasks_ValidatesEveryRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"tasks":[` + taskBody + `]}`))
	}))
	defer ts.Close()

	tasks, err := New(ts.URL).ListTasks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Fix bug" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestListTasks_RejectsMalformedRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tasks":[{"id":"nope","title":"x","status":"todo"}]}`))
	}))
	defer ts.Close()

	if _, err := New(ts.URL).ListTasks(context.Background()); err == nil {
		t.Fatal("expected validation error for bad task id")
	}
}

func TestCreateTask_SendsBodyAndParsesTask(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tasks" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Title != "Fix bug" || req.Description != nil {
			t.Fatalf("unexpected request body: %+v", req)
		}
		w.Write([]byte(taskBody))
	}))
	defer ts.Close()

	created, err := New(ts.URL).CreateTask(context.Background(), CreateTaskRequest{Title: "Fix bug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != task.StatusTodo {
		t.Fatalf("expected todo status, got %s", created.Status)
	}
	if created.ErrorMessage != nil || created.BranchName != nil {
		t.Fatal("fresh task should carry no error_message or branch_name")
	}
}

func TestGetTask_EscapesIDAndValidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tasks/0b7e4a52-7f4e-4f0b-9a2e-6f1d2c3b4a5e" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(taskBody))
	}))
	defer ts.Close()

	got, err := New(ts.URL).GetTask(context.Background(), "0b7e4a52-7f4e-4f0b-9a2e-6f1d2c3b4a5e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Fix bug" {
		t.Fatalf("unexpected task: %+v", got)
	}
}

func TestFetchServerInfo_ParsesNameAndPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/server/info" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"name":"eval-board","path":"/srv/projects/eval-board"}`))
	}))
	defer ts.Close()

	info, err := New(ts.URL).FetchServerInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "eval-board" || info.Path != "/srv/projects/eval-board" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestRestartServer_PostsAndSurfacesFailure(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/server/restart" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"restart already in progress"}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	if err := c.RestartServer(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := c.RestartServer(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected APIError with 500, got %v", err)
	}
}

func TestErrorResponse_SurfacesStatusAndMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"task is already running"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL).StartTask(context.Background(), "abc")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "task is already running" {
		t.Fatalf("unexpected error payload: %+v", apiErr)
	}
}

func TestRedoPlan_RequiresSessionIDInResponse(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/api/plan/s-1/redo" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if calls == 1 {
			w.Write([]byte(`{"session_id":"s-2"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	resp, err := c.RedoPlan(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SessionID != "s-2" {
		t.Fatalf("unexpected session id: %s", resp.SessionID)
	}
	if _, err := c.RedoPlan(context.Background(), "s-1"); err == nil {
		t.Fatal("expected error for empty session_id")
	}
}

func TestPreviewStatusInfo_RejectsUnknownStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"task_id":"abc","backend_url":"http://127.0.0.1:4000","frontend_url":"http://127.0.0.1:3000","backend_port":4000,"frontend_port":3000,"status":"paused"}`))
	}))
	defer ts.Close()

	if _, err := New(ts.URL).PreviewStatusInfo(context.Background(), "abc"); err == nil {
		t.Fatal("expected rejection for unknown preview status")
	}
}

func TestTaskDiff_ParsesTotals(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks/abc/diff" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"files":[{"path":"main.go","change_type":"modified","additions":3,"deletions":1,"content":"diff"}],"total_additions":3,"total_deletions":1}`))
	}))
	defer ts.Close()

	diff, err := New(ts.URL).TaskDiff(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff.TotalAdditions != 3 || len(diff.Files) != 1 || diff.Files[0].ChangeType != DiffModified {
		t.Fatalf("unexpected diff: %+v", diff)
	}
}
