package model

import "time"

// Option codes the decision center uses for the two extremes of a decision.
const (
    OptionApprove = "Aprov"
    OptionReject  = "Repro"
)

// TaskOption is one possible answer to a pending task.
type TaskOption struct {
    ID          int64  `json:"id"`
    Code        string `json:"code"`
    Description string `json:"description"`
}

// Task is an approval task owned by the decision center.  Subject groups
// tasks into tabs on the approvals screen.
type Task struct {
    ID          int64          `json:"id"`
    Subject     string         `json:"subject"`
    Description string         `json:"description"`
    Requester   string         `json:"requester,omitempty"`
    CreatedAt   string         `json:"createdAt,omitempty"`
    Options     []TaskOption   `json:"options"`
    Fields      map[string]any `json:"fields,omitempty"`
}

// TaskAnswer is one decision sent back to the decision center.
type TaskAnswer struct {
    AccessToken   string    `json:"-"`
    TaskID        int64     `json:"taskId"`
    AnswerDate    time.Time `json:"answerDate"`
    TakenOptionID int64     `json:"takenOptionId"`
    Note          string    `json:"note"`
}
