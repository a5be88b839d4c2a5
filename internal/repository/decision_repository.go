package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/portal-compras-gateway/internal/workflow"
)

// DecisionRepo keeps the audit trail of approval decisions taken through the
// portal (table approval_decisions, one row per task).
type DecisionRepo struct{ DB *sql.DB }

func NewDecisionRepo(db *sql.DB) *DecisionRepo { return &DecisionRepo{DB: db} }

// RecordDecision inserts one decision.  Answering a task twice yields
// ErrConflict.
func (r *DecisionRepo) RecordDecision(ctx context.Context, d workflow.Decision) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO approval_decisions (task_id, subject, option_id, option_code, note, username, head_office, answered_at) VALUES (?,?,?,?,?,?,?,?)",
		d.TaskID, d.Subject, d.OptionID, d.OptionCode, d.Note, d.Username, d.HeadOffice, d.AnsweredAt.UTC())
	return translate(err)
}

// ListByUser returns the latest decisions of username, newest first.
func (r *DecisionRepo) ListByUser(ctx context.Context, username string, limit int) ([]workflow.Decision, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT task_id, subject, option_id, option_code, note, username, head_office, answered_at FROM approval_decisions WHERE username=? ORDER BY answered_at DESC, task_id DESC LIMIT ?",
		username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []workflow.Decision{}
	for rows.Next() {
		var (
			d          workflow.Decision
			answeredAt time.Time
		)
		if err := rows.Scan(&d.TaskID, &d.Subject, &d.OptionID, &d.OptionCode, &d.Note, &d.Username, &d.HeadOffice, &answeredAt); err != nil {
			return nil, err
		}
		d.AnsweredAt = answeredAt.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}
