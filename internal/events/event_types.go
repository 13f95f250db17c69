package events

import (
	"time"

	"github.com/spec-kit/crm-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated      EventType = "lead_created"
	EventLeadUpdated      EventType = "lead_updated"
	EventLeadAssigned     EventType = "lead_assigned"
	EventLeadStageChanged EventType = "lead_stage_changed"
	EventLeadDeleted      EventType = "lead_deleted"
	EventLeadsImported    EventType = "leads_imported"
)

// AllEventTypes lists every type, for subscribers that forward everything.
var AllEventTypes = []EventType{
	EventLeadCreated,
	EventLeadUpdated,
	EventLeadAssigned,
	EventLeadStageChanged,
	EventLeadDeleted,
	EventLeadsImported,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	LeadID    int64       `json:"lead_id,omitempty"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LeadCreatedPayload payload.
type LeadCreatedPayload struct {
	Name       string            `json:"name"`
	Source     domain.LeadSource `json:"source"`
	AssignedTo string            `json:"assigned_to,omitempty"`
}

// LeadUpdatedPayload payload.
type LeadUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// LeadAssignedPayload payload.
type LeadAssignedPayload struct {
	PreviousAssignee string `json:"previous_assignee,omitempty"`
	NewAssignee      string `json:"new_assignee"`
}

// LeadStageChangedPayload payload.
type LeadStageChangedPayload struct {
	OldStage domain.LeadStage `json:"old_stage"`
	NewStage domain.LeadStage `json:"new_stage"`
}

// LeadsImportedPayload payload.
type LeadsImportedPayload struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}
