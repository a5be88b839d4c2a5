// Package workflow integrates the approvals screen with the decision center,
// the external service that owns approval tasks.
package workflow

import (
	"context"
	"net/http"
	"time"

	"github.com/iliyamo/portal-compras-gateway/internal/backend"
	"github.com/iliyamo/portal-compras-gateway/internal/listquery"
	"github.com/iliyamo/portal-compras-gateway/internal/model"
)

const (
	pendingTasksPath  = "/decision_center/queries/getPendingTasks"
	listTasksPath     = "/decision_center/queries/listTasks"
	answerTasksPath   = "/decision_center/actions/updateAnsweredTasks"
	pendingTasksCount = 1000
)

// TaskQuery is the paging and sorting accepted by listTasks.
type TaskQuery struct {
	Offset        int                 `json:"offset"`
	Limit         int                 `json:"limit"`
	SortField     string              `json:"sortField,omitempty"`
	SortDirection listquery.Direction `json:"sortDirection,omitempty"`
}

// TaskQueryFrom converts a list screen query.
func TaskQueryFrom(q listquery.Query) TaskQuery {
	return TaskQuery{
		Offset:        q.Offset(),
		Limit:         q.PerPage,
		SortField:     q.OrderField,
		SortDirection: q.OrderDirection,
	}
}

type pendingReq struct {
	Page  int `json:"page"`
	Count int `json:"count"`
}

type listReq struct {
	ExecutionFilter []string `json:"executionFilter"`
	TaskQuery
}

type answerItem struct {
	TaskID        int64     `json:"taskId"`
	AnswerDate    time.Time `json:"answerDate"`
	TakenOptionID int64     `json:"takenOptionId"`
	Note          string    `json:"note"`
}

type answerReq struct {
	TasksAnswers []answerItem `json:"tasksAnswers"`
}

// Client calls the decision center.  It shares the backend client so
// 401 and transport errors look the same as on the procurement API.
type Client struct {
	c *backend.Client
}

func NewClient(baseURL string, timeout time.Duration, opts ...backend.Option) *Client {
	opts = append([]backend.Option{backend.WithService("workflow")}, opts...)
	return &Client{c: backend.New(baseURL, timeout, opts...)}
}

// GetPendingTasks asks the decision center to refresh the user's task state.
// ListTasks is only consistent after this call.
func (c *Client) GetPendingTasks(ctx context.Context, token string) error {
	return c.c.Do(ctx, http.MethodPost, pendingTasksPath, token, nil, pendingReq{Page: 1, Count: pendingTasksCount}, nil)
}

// ListTasks returns one page of unanswered tasks.
func (c *Client) ListTasks(ctx context.Context, token string, q TaskQuery) (listquery.Page[model.Task], error) {
	var page listquery.Page[model.Task]
	err := c.c.Do(ctx, http.MethodPost, listTasksPath, token, nil, listReq{
		ExecutionFilter: []string{"unanswered"},
		TaskQuery:       q,
	}, &page)
	if page.Data == nil {
		page.Data = []model.Task{}
	}
	return page, err
}

// UpdateAnsweredTasks posts one decision.
func (c *Client) UpdateAnsweredTasks(ctx context.Context, a model.TaskAnswer) error {
	return c.c.Do(ctx, http.MethodPost, answerTasksPath, a.AccessToken, nil, answerReq{
		TasksAnswers: []answerItem{{
			TaskID:        a.TaskID,
			AnswerDate:    a.AnswerDate,
			TakenOptionID: a.TakenOptionID,
			Note:          a.Note,
		}},
	}, nil)
}
