package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type StartPlanRequest struct {
	Title        string `json:"title"`
	Prompt       string `json:"prompt"`
	SessionID    string `json:"session_id"`
	AskQuestions bool   `json:"ask_questions"`
}

type PlanAnswer struct {
	QuestionIndex int      `json:"question_index"`
	Answers       []string `json:"answers"`
}

type AnswerPlanRequest struct {
	Answers []PlanAnswer `json:"answers"`
}

type ExecutePlanRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

type ExecutePlanResponse struct {
	TaskID string `json:"task_id"`
}

type RedoPlanResponse struct {
	SessionID string `json:"session_id"`
}

func (c *Client) StartPlan(ctx context.Context, req StartPlanRequest) error {
	return c.do(ctx, http.MethodPost, "/api/plan", req, nil)
}

func (c *Client) AnswerPlan(ctx context.Context, sessionID string, req AnswerPlanRequest) error {
	return c.do(ctx, http.MethodPost, planPath(sessionID, "answer"), req, nil)
}

func (c *Client) ExecutePlan(ctx context.Context, sessionID string, req ExecutePlanRequest) (ExecutePlanResponse, error) {
	var out ExecutePlanResponse
	if err := c.do(ctx, http.MethodPost, planPath(sessionID, "execute"), req, &out); err != nil {
		return ExecutePlanResponse{}, err
	}
	if strings.TrimSpace(out.TaskID) == "" {
		return ExecutePlanResponse{}, fmt.Errorf("execute plan: response carries no task_id")
	}
	return out, nil
}

func (c *Client) CancelPlan(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, planPath(sessionID, "cancel"), nil, nil)
}

// RedoPlan discards the session on the server and returns the
// replacement session id for the same task content.
func (c *Client) RedoPlan(ctx context.Context, sessionID string) (RedoPlanResponse, error) {
	var out RedoPlanResponse
	if err := c.do(ctx, http.MethodPost, planPath(sessionID, "redo"), nil, &out); err != nil {
		return RedoPlanResponse{}, err
	}
	if strings.TrimSpace(out.SessionID) == "" {
		return RedoPlanResponse{}, fmt.Errorf("redo plan: response carries no session_id")
	}
	return out, nil
}

func (c *Client) ResumePlan(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, planPath(sessionID, "resume"), nil, nil)
}

func planPath(sessionID, verb string) string {
	return "/api/plan/" + url.PathEscape(sessionID) + "/" + verb
}
