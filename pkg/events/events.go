// Package events defines event types and structures for approval workflow
// lifecycle notifications. The engine only decides; these events are what
// the surrounding notification dispatcher consumes to deliver anything.
package events

import (
	"time"

	"github.com/contentops/approvalflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Kafka topic.
const Topic = "approvalflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	StageEnteredEvent      EventType = "approval.stage.entered"
	StageCompletedEvent    EventType = "approval.stage.completed"
	EscalationFiredEvent   EventType = "approval.escalation.fired"
	ReminderDueEvent       EventType = "approval.reminder.due"
	WorkflowCompletedEvent EventType = "approval.workflow.completed"
	DefaultChangedEvent    EventType = "approval.workflow.defaulted"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	ClientID   string         `json:"client_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent creates the shared envelope for an event.
func NewBaseEvent(eventType EventType, workflowID, clientID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		ClientID:   clientID,
	}
}

type StageEntered struct {
	BaseEvent

	ContentID     string   `json:"content_id"`
	StageName     string   `json:"stage_name"`
	StageOrder    int      `json:"stage_order"`
	Approvers     []string `json:"approvers,omitempty"`
	CustomMessage string   `json:"custom_message,omitempty"`
}

func (e StageEntered) GetType() EventType { return StageEnteredEvent }

type StageCompleted struct {
	BaseEvent

	ContentID  string                `json:"content_id"`
	StageName  string                `json:"stage_name"`
	StageOrder int                   `json:"stage_order"`
	Status     models.ApprovalStatus `json:"status"`
	Terminal   bool                  `json:"terminal"`
}

func (e StageCompleted) GetType() EventType { return StageCompletedEvent }

type EscalationFired struct {
	BaseEvent

	ContentID      string                `json:"content_id"`
	StageName      string                `json:"stage_name"`
	StageOrder     int                   `json:"stage_order"`
	EscalationType models.EscalationType `json:"escalation_type"`
	// Targets may be empty when the stage policy names nobody; consumers
	// decide whether to fall back or just warn.
	Targets            []string `json:"targets,omitempty"`
	EffectiveApprovers []string `json:"effective_approvers,omitempty"`
	ElapsedHours       float64  `json:"elapsed_hours"`
}

func (e EscalationFired) GetType() EventType { return EscalationFiredEvent }

type ReminderDue struct {
	BaseEvent

	ContentID    string   `json:"content_id"`
	StageName    string   `json:"stage_name"`
	StageOrder   int      `json:"stage_order"`
	Approvers    []string `json:"approvers,omitempty"`
	ReminderSeq  int      `json:"reminder_seq"` // 1-based, capped at settings.max_reminders
	ElapsedHours float64  `json:"elapsed_hours"`
}

func (e ReminderDue) GetType() EventType { return ReminderDueEvent }

type WorkflowCompleted struct {
	BaseEvent

	ContentID           string  `json:"content_id"`
	Approved            bool    `json:"approved"`
	CompletionTimeHours float64 `json:"completion_time_hours"`
}

func (e WorkflowCompleted) GetType() EventType { return WorkflowCompletedEvent }

type DefaultChanged struct {
	BaseEvent

	PreviousWorkflowID string `json:"previous_workflow_id,omitempty"`
	ChangedBy          string `json:"changed_by,omitempty"`
}

func (e DefaultChanged) GetType() EventType { return DefaultChangedEvent }
