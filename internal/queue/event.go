// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
    "time"

    "github.com/iliyamo/portal-compras-gateway/internal/workflow"
)

// ApprovalQueueName is the durable queue approval events are routed to.
const ApprovalQueueName = "approval.answered"

// ApprovalAnsweredEvent is published after the decision center accepted an
// answer.  It carries enough for downstream consumers to log, notify the
// requester or feed analytics without calling the decision center again.
type ApprovalAnsweredEvent struct {
    TaskID     int64  `json:"task_id"`
    Subject    string `json:"subject"`
    OptionID   int64  `json:"option_id"`
    OptionCode string `json:"option_code"`
    Decision   string `json:"decision"` // approve | reject | other
    Note       string `json:"note"`
    Username   string `json:"username"`
    HeadOffice string `json:"head_office"`
    AnsweredAt string `json:"answered_at"` // RFC 3339, UTC
}

// NewApprovalAnsweredEvent builds the event of a decision.
func NewApprovalAnsweredEvent(d workflow.Decision) ApprovalAnsweredEvent {
    return ApprovalAnsweredEvent{
        TaskID:     d.TaskID,
        Subject:    d.Subject,
        OptionID:   d.OptionID,
        OptionCode: d.OptionCode,
        Decision:   workflow.OptionClass(d.OptionCode),
        Note:       d.Note,
        Username:   d.Username,
        HeadOffice: d.HeadOffice,
        AnsweredAt: d.AnsweredAt.UTC().Format(time.RFC3339),
    }
}
