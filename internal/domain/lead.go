package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeadSource identifies the intake channel.
type LeadSource string

const (
	LeadSourceFacebook  LeadSource = "facebook"
	LeadSourceZalo      LeadSource = "zalo"
	LeadSourceGoogleAds LeadSource = "google_ads"
	LeadSourceWebsite   LeadSource = "website"
	LeadSourceManual    LeadSource = "manual"
	LeadSourceReferral  LeadSource = "referral"
	LeadSourceOther     LeadSource = "other"
)

// LeadStatus is the qualification state of a lead.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusContacted    LeadStatus = "contacted"
	LeadStatusPotential    LeadStatus = "potential"
	LeadStatusNotPotential LeadStatus = "not_potential"
	LeadStatusConverted    LeadStatus = "converted"
)

// LeadStage is a position in the sales pipeline.
type LeadStage string

const (
	LeadStageReception   LeadStage = "reception"
	LeadStageConsulting  LeadStage = "consulting"
	LeadStageQuoted      LeadStage = "quoted"
	LeadStageNegotiating LeadStage = "negotiating"
	LeadStageClosed      LeadStage = "closed"
	LeadStageCancelled   LeadStage = "cancelled"
)

// Pipeline is the ordered list of non-terminal-by-cancellation stages.
var Pipeline = []LeadStage{
	LeadStageReception,
	LeadStageConsulting,
	LeadStageQuoted,
	LeadStageNegotiating,
	LeadStageClosed,
}

// PipelineIndex returns the stage position, or -1 for cancelled and unknown stages.
func PipelineIndex(stage LeadStage) int {
	for i, s := range Pipeline {
		if s == stage {
			return i
		}
	}
	return -1
}

// IsValidStage reports whether the stage is a pipeline stage or cancelled.
func IsValidStage(stage LeadStage) bool {
	return stage == LeadStageCancelled || PipelineIndex(stage) >= 0
}

// IsValidStatus reports whether the status is known.
func IsValidStatus(status LeadStatus) bool {
	switch status {
	case LeadStatusNew, LeadStatusContacted, LeadStatusPotential, LeadStatusNotPotential, LeadStatusConverted:
		return true
	}
	return false
}

// IsValidSource reports whether the source is known.
func IsValidSource(source LeadSource) bool {
	switch source {
	case LeadSourceFacebook, LeadSourceZalo, LeadSourceGoogleAds, LeadSourceWebsite,
		LeadSourceManual, LeadSourceReferral, LeadSourceOther:
		return true
	}
	return false
}

// Lead is a sales prospect.
type Lead struct {
	ID              int64
	Name            string
	Phone           string
	Email           string
	Source          LeadSource
	Region          string
	Product         string
	Content         string
	Status          LeadStatus
	Stage           LeadStage
	Value           *decimal.Decimal
	AssignedTo      *string
	CreatedBy       string
	Tags            []string
	LastContactedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssigneeID returns the assignee or an empty string.
func (l *Lead) AssigneeID() string {
	if l.AssignedTo == nil {
		return ""
	}
	return *l.AssignedTo
}
