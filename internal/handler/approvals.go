package handler

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/pkg/errors"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/portal-compras-gateway/internal/formerr"
    "github.com/iliyamo/portal-compras-gateway/internal/listquery"
    "github.com/iliyamo/portal-compras-gateway/internal/workflow"
)

// DecisionHistory reads back the decisions recorded by the audit trail.
type DecisionHistory interface {
	ListByUser(ctx context.Context, username string, limit int) ([]workflow.Decision, error)
}

// ApprovalsHandler serves the approvals board.  The board is rebuilt per
// request from the decision center and the filters persisted in the
// browser's partition.  History is nil when no audit database is
// configured.
type ApprovalsHandler struct {
	Source     workflow.Source
	Sinks      []workflow.DecisionSink
	History    DecisionHistory
	PublicPath string
	Log        logrus.FieldLogger
}

func NewApprovalsHandler(src workflow.Source, history DecisionHistory, publicPath string, log logrus.FieldLogger, sinks ...workflow.DecisionSink) *ApprovalsHandler {
	return &ApprovalsHandler{Source: src, Sinks: sinks, History: history, PublicPath: publicPath, Log: log}
}

func (h *ApprovalsHandler) board(c echo.Context) *workflow.Board {
	return workflow.NewBoard(c.Request().Context(), h.Source, manager(c), h.Log, h.Sinks...)
}

// queryKeys are the parameters that replace the persisted paging and sort.
var queryKeys = []string{"perPage", "currentPage", "orderField", "orderBy", "orderDirection"}

// List mounts the board.  Paging or sort parameters replace the remembered
// ones; tab selects a tab when it exists after the refresh.
func (h *ApprovalsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	b := h.board(c)

	var err error
	if hasAny(c, queryKeys) {
		err = b.SetQuery(ctx, listquery.Parse(c.QueryParams(), listquery.ScreenFor("approvals")))
	} else {
		err = b.Mount(ctx)
	}
	if err != nil {
		return upstreamFailure(c, h.PublicPath, err)
	}
	if tab := c.QueryParam("tab"); tab != "" {
		b.SelectTab(ctx, tab)
	}
	return c.JSON(http.StatusOK, b.View())
}

type answerReq struct {
	OptionID int64  `json:"optionId" validate:"required,gt=0"`
	Note     string `json:"note,omitempty" validate:"max=500"`
}

// Answer posts one decision for the task in the path and answers the
// refreshed board.
func (h *ApprovalsHandler) Answer(c echo.Context) error {
	taskID, err := strconv.ParseInt(c.Param("taskId"), 10, 64)
	if err != nil || taskID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}
	var req answerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields, ok := formerr.Validate(req); !ok {
		return invalid(c, fields)
	}

	ctx := c.Request().Context()
	b := h.board(c)
	if err := b.Mount(ctx); err != nil {
		return upstreamFailure(c, h.PublicPath, err)
	}
	if err := b.Answer(ctx, taskID, req.OptionID, req.Note); err != nil {
		if errors.Is(err, workflow.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return upstreamFailure(c, h.PublicPath, err)
	}
	return c.JSON(http.StatusOK, b.View())
}

// ListHistory answers the caller's latest decisions from the audit trail.
func (h *ApprovalsHandler) ListHistory(c echo.Context) error {
	if h.History == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "history disabled"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	out, err := h.History.ListByUser(c.Request().Context(), manager(c).User().Username, limit)
	if err != nil {
		h.Log.WithError(err).Error("list decision history")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

func hasAny(c echo.Context, keys []string) bool {
	params := c.QueryParams()
	for _, k := range keys {
		if params.Has(k) {
			return true
		}
	}
	return false
}
