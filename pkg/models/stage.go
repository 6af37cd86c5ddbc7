package models

// EscalationType controls what happens to a stage's approver set when an
// escalation fires.
type EscalationType string

const (
	// EscalationParallel adds the escalation targets alongside the original
	// approvers; both remain eligible to act.
	EscalationParallel EscalationType = "parallel"
	// EscalationReplace supersedes the original approver set entirely for
	// the remainder of the stage instance.
	EscalationReplace EscalationType = "replace"
)

// StageEscalation is the per-stage escalation policy. AfterHours overrides
// the workflow-level Settings.EscalationAfter when set.
type StageEscalation struct {
	Enabled    bool           `json:"enabled"`
	AfterHours *float64       `json:"after_hours,omitempty"`
	EscalateTo []string       `json:"escalate_to,omitempty"`
	Type       EscalationType `json:"type,omitempty"`
}

// StageNotifications selects which engine decisions the surrounding
// notification dispatcher should be told about. Delivery is not owned here.
type StageNotifications struct {
	OnEntry       bool   `json:"on_entry"`
	OnDelay       bool   `json:"on_delay"`
	OnEscalation  bool   `json:"on_escalation"`
	CustomMessage string `json:"custom_message,omitempty"`
}

// Stage is one step in a workflow. Order is an explicit integer rank, not
// the array position: gaps are legal, and stages are re-sorted ascending by
// Order on every persist.
type Stage struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"  validate:"required"`
	Order         int                `json:"order" validate:"min=1"`
	Status        ApprovalStatus     `json:"status,omitempty"`
	Approvers     []string           `json:"approvers,omitempty"`
	IsRequired    bool               `json:"is_required"`
	AutoAdvance   bool               `json:"auto_advance"`
	TimeLimit     *float64           `json:"time_limit,omitempty"` // hours
	Conditions    []*Condition       `json:"conditions,omitempty" validate:"dive"`
	Notifications StageNotifications `json:"notifications"`
	Escalation    StageEscalation    `json:"escalation"`
}

// StageInstance is the surrounding runtime's record of one stage awaiting
// action for one content item. The engine's escalation and reminder checks
// are pure decision functions; Escalated and RemindersSent are the caller
// state that makes those decisions idempotent.
type StageInstance struct {
	ID            string `json:"id"`
	WorkflowID    string `json:"workflow_id" validate:"required"`
	ContentID     string `json:"content_id"  validate:"required"`
	ClientID      string `json:"client_id"`
	StageOrder    int    `json:"stage_order"`
	EnteredAt     int64  `json:"entered_at"` // unix seconds
	Resolved      bool   `json:"resolved"`
	Escalated     bool   `json:"escalated"`
	RemindersSent int    `json:"reminders_sent"`
}
