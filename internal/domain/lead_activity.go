package domain

import "time"

// ActivityType captures what happened in a timeline entry.
type ActivityType string

const (
	ActivityLeadCreated  ActivityType = "lead_created"
	ActivityLeadUpdated  ActivityType = "lead_updated"
	ActivityAssign       ActivityType = "assign"
	ActivityStageChanged ActivityType = "stage_changed"
)

// LeadActivity is an immutable timeline entry.
type LeadActivity struct {
	ID          int64
	LeadID      int64
	Type        ActivityType
	ActorID     string
	Description string
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
