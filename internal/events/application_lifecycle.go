package events

import "time"

const ApplicationLifecycleTopic = "erp.application.lifecycle.v1"

// Event types carried on the application lifecycle topic.
const (
	ApplicationSubmitted    = "application_submitted"
	ApplicationStepAdvanced = "application_step_advanced"
	ApplicationApproved     = "application_approved"
	ApplicationRejected     = "application_rejected"
)

// ApplicationLifecycleEvent is emitted through the outbox whenever an
// application changes state. NextApproverID is set only while the
// application is still pending; Reason only on rejection.
type ApplicationLifecycleEvent struct {
	EventType         string    `json:"event_type"`
	RequestID         string    `json:"request_id,omitempty"`
	ApplicationID     string    `json:"application_id"`
	ApplicationNumber string    `json:"application_number"`
	ApplicantID       string    `json:"applicant_id"`
	ActorID           string    `json:"actor_id"`
	CurrentLevel      int       `json:"current_level"`
	NextApproverID    string    `json:"next_approver_id,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}
