package workflow

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/portal-compras-gateway/internal/backend"
	"github.com/iliyamo/portal-compras-gateway/internal/listquery"
	"github.com/iliyamo/portal-compras-gateway/internal/metrics"
	"github.com/iliyamo/portal-compras-gateway/internal/model"
	"github.com/iliyamo/portal-compras-gateway/internal/session"
	"github.com/iliyamo/portal-compras-gateway/internal/store"
)

// ErrTaskNotFound is returned when answering a task that is not on the
// board, or with an option the task does not offer.
var ErrTaskNotFound = errors.New("workflow: task or option not on the board")

// Source is the decision center as seen by the board.
type Source interface {
	GetPendingTasks(ctx context.Context, token string) error
	ListTasks(ctx context.Context, token string, q TaskQuery) (listquery.Page[model.Task], error)
	UpdateAnsweredTasks(ctx context.Context, a model.TaskAnswer) error
}

// Decision describes an accepted answer for audit and notifications.
type Decision struct {
	TaskID     int64     `json:"taskId"`
	Subject    string    `json:"subject"`
	OptionID   int64     `json:"optionId"`
	OptionCode string    `json:"optionCode"`
	Note       string    `json:"note"`
	Username   string    `json:"username"`
	HeadOffice string    `json:"headOffice"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// DecisionSink receives accepted decisions.  Sink failures are logged and
// never undo the answer.
type DecisionSink interface {
	RecordDecision(ctx context.Context, d Decision) error
}

// Tab groups the tasks sharing a subject.
type Tab struct {
	Subject string       `json:"subject"`
	Tasks   []model.Task `json:"tasks"`
}

// Filters is what the approvals screen remembers between visits.
type Filters struct {
	SelectedTab string          `json:"selectedTab"`
	Query       listquery.Query `json:"query"`
}

// View is the rendered state of the board.
type View struct {
	Tabs        []Tab           `json:"tabs"`
	SelectedTab string          `json:"selectedTab"`
	Query       listquery.Query `json:"query"`
	TotalRows   int             `json:"totalRows"`
}

// Board is the approvals screen: pending tasks grouped by subject.
type Board struct {
	src   Source
	sess  *session.Manager
	sinks []DecisionSink
	log   logrus.FieldLogger
	now   func() time.Time
	cfg   listquery.ScreenConfig

	tabs      []Tab
	filters   Filters
	totalRows int
}

func NewBoard(ctx context.Context, src Source, sess *session.Manager, log logrus.FieldLogger, sinks ...DecisionSink) *Board {
	if log == nil {
		log = logrus.StandardLogger()
	}
	b := &Board{
		src:   src,
		sess:  sess,
		sinks: sinks,
		log:   log,
		now:   time.Now,
		cfg:   listquery.ScreenFor("approvals"),
	}
	b.filters.Query = b.cfg.Default()
	var saved Filters
	if sess.Store().GetItem(ctx, store.KeyApprovalsFilters, &saved) {
		b.filters.SelectedTab = saved.SelectedTab
		b.filters.Query = saved.Query.Normalize(b.cfg)
	}
	return b
}

// Mount loads the board when the screen opens.
func (b *Board) Mount(ctx context.Context) error { return b.Refresh(ctx) }

// Refresh asks the decision center to refresh pending tasks and then lists
// them.  The order of the two calls is part of the protocol.
func (b *Board) Refresh(ctx context.Context) error {
	token := b.sess.Token()
	if err := b.src.GetPendingTasks(ctx, token); err != nil {
		return b.fail(ctx, errors.Wrap(err, "get pending tasks"))
	}
	page, err := b.src.ListTasks(ctx, token, TaskQueryFrom(b.filters.Query))
	if err != nil {
		return b.fail(ctx, errors.Wrap(err, "list tasks"))
	}

	b.tabs = GroupBySubject(page.Data)
	b.totalRows = page.TotalRows
	b.filters.SelectedTab = SelectTab(b.filters.SelectedTab, b.tabs)
	b.filters.Query = listquery.AfterResponse(b.filters.Query, page.TotalRows, b.cfg)
	b.saveFilters(ctx)
	return nil
}

// SetQuery changes sorting or paging and reloads.
func (b *Board) SetQuery(ctx context.Context, q listquery.Query) error {
	b.filters.Query = q.Normalize(b.cfg)
	return b.Refresh(ctx)
}

// SelectTab switches tabs without reloading.  Unknown subjects are ignored.
func (b *Board) SelectTab(ctx context.Context, subject string) bool {
	for _, t := range b.tabs {
		if t.Subject == subject {
			b.filters.SelectedTab = subject
			b.saveFilters(ctx)
			return true
		}
	}
	return false
}

// Answer posts one decision and reloads the board.
func (b *Board) Answer(ctx context.Context, taskID, optionID int64, note string) error {
	task, opt, ok := b.find(taskID, optionID)
	if !ok {
		return ErrTaskNotFound
	}
	answeredAt := b.now().UTC()
	err := b.src.UpdateAnsweredTasks(ctx, model.TaskAnswer{
		AccessToken:   b.sess.Token(),
		TaskID:        taskID,
		AnswerDate:    answeredAt,
		TakenOptionID: optionID,
		Note:          note,
	})
	metrics.ApprovalAnswer(OptionClass(opt.Code), err)
	if err != nil {
		return b.fail(ctx, errors.Wrap(err, "update answered tasks"))
	}

	d := Decision{
		TaskID:     taskID,
		Subject:    task.Subject,
		OptionID:   optionID,
		OptionCode: opt.Code,
		Note:       note,
		Username:   b.sess.User().Username,
		AnsweredAt: answeredAt,
	}
	if ho := b.sess.CurrentHeadOffice(); ho != nil {
		d.HeadOffice = ho.Code
	}
	for _, s := range b.sinks {
		if err := s.RecordDecision(ctx, d); err != nil {
			b.log.WithError(err).WithField("taskId", taskID).Warn("approvals: decision sink failed")
		}
	}
	return b.Refresh(ctx)
}

// View returns the current board.
func (b *Board) View() View {
	tabs := b.tabs
	if tabs == nil {
		tabs = []Tab{}
	}
	return View{
		Tabs:        tabs,
		SelectedTab: b.filters.SelectedTab,
		Query:       b.filters.Query,
		TotalRows:   b.totalRows,
	}
}

func (b *Board) find(taskID, optionID int64) (model.Task, model.TaskOption, bool) {
	for _, tab := range b.tabs {
		for _, t := range tab.Tasks {
			if t.ID != taskID {
				continue
			}
			for _, o := range t.Options {
				if o.ID == optionID {
					return t, o, true
				}
			}
			return model.Task{}, model.TaskOption{}, false
		}
	}
	return model.Task{}, model.TaskOption{}, false
}

// fail signs the user out when the decision center rejected the token.
func (b *Board) fail(ctx context.Context, err error) error {
	if errors.Is(err, backend.ErrUnauthorized) {
		b.sess.SignOut(ctx)
		metrics.SignOut("unauthorized")
	}
	return err
}

func (b *Board) saveFilters(ctx context.Context) {
	b.sess.Store().SetItem(ctx, store.KeyApprovalsFilters, b.filters)
}

// GroupBySubject groups tasks into tabs in order of first appearance.  The
// options of every task are put in display order.
func GroupBySubject(tasks []model.Task) []Tab {
	idx := map[string]int{}
	tabs := []Tab{}
	for _, t := range tasks {
		t.Options = SortOptions(t.Options)
		i, ok := idx[t.Subject]
		if !ok {
			i = len(tabs)
			idx[t.Subject] = i
			tabs = append(tabs, Tab{Subject: t.Subject})
		}
		tabs[i].Tasks = append(tabs[i].Tasks, t)
	}
	return tabs
}

// SelectTab keeps previous when it is still one of the tabs, otherwise
// picks the first tab.  No tabs means no selection.
func SelectTab(previous string, tabs []Tab) string {
	for _, t := range tabs {
		if t.Subject == previous {
			return previous
		}
	}
	if len(tabs) == 0 {
		return ""
	}
	return tabs[0].Subject
}
