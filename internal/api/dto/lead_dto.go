package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/crm-service/internal/domain"
)

// CreateLeadRequest payload.
type CreateLeadRequest struct {
	Name            string           `json:"name" validate:"required,max=255"`
	Phone           string           `json:"phone" validate:"max=32"`
	Email           string           `json:"email" validate:"omitempty,email"`
	Source          string           `json:"source"`
	Region          string           `json:"region"`
	Product         string           `json:"product"`
	Content         string           `json:"content"`
	Status          string           `json:"status"`
	Value           *decimal.Decimal `json:"value"`
	AssignedTo      *string          `json:"assignedTo"`
	Tags            []string         `json:"tags" validate:"dive,required"`
	LastContactedAt *time.Time       `json:"lastContactedAt"`
}

// UpdateLeadRequest payload. Omitted fields are left unchanged.
type UpdateLeadRequest struct {
	Name            *string          `json:"name" validate:"omitempty,max=255"`
	Phone           *string          `json:"phone" validate:"omitempty,max=32"`
	Email           *string          `json:"email" validate:"omitempty,email"`
	Source          *string          `json:"source"`
	Region          *string          `json:"region"`
	Product         *string          `json:"product"`
	Content         *string          `json:"content"`
	Status          *string          `json:"status"`
	Value           *decimal.Decimal `json:"value"`
	Tags            []string         `json:"tags" validate:"omitempty,dive,required"`
	LastContactedAt *time.Time       `json:"lastContactedAt"`
}

// AssignLeadsRequest payload.
type AssignLeadsRequest struct {
	LeadIDs []int64 `json:"leadIds" validate:"required,min=1,dive,gt=0"`
	UserID  string  `json:"userId" validate:"required"`
}

// ChangeStageRequest payload.
type ChangeStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// LeadResponse is the public view of a lead.
type LeadResponse struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	Email           string            `json:"email"`
	Source          domain.LeadSource `json:"source"`
	Region          string            `json:"region"`
	Product         string            `json:"product"`
	Content         string            `json:"content"`
	Status          domain.LeadStatus `json:"status"`
	Stage           domain.LeadStage  `json:"stage"`
	Value           *decimal.Decimal  `json:"value"`
	AssignedTo      *string           `json:"assignedTo"`
	CreatedBy       string            `json:"createdBy"`
	Tags            []string          `json:"tags"`
	LastContactedAt *time.Time        `json:"lastContactedAt"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// LeadListResponse is one page of leads.
type LeadListResponse struct {
	Leads []LeadResponse `json:"leads"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// AssignFailure reports a lead that could not be assigned.
type AssignFailure struct {
	LeadID  int64  `json:"leadId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AssignLeadsResponse reports the outcome of a batch assignment.
type AssignLeadsResponse struct {
	Assigned []int64         `json:"assigned"`
	Failed   []AssignFailure `json:"failed"`
}

// ActivityResponse is one timeline entry.
type ActivityResponse struct {
	ID          int64               `json:"id"`
	Type        domain.ActivityType `json:"type"`
	ActorID     string              `json:"actorId"`
	Description string              `json:"description"`
	OldValue    map[string]any      `json:"oldValue,omitempty"`
	NewValue    map[string]any      `json:"newValue,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// ImportRowError reports a rejected spreadsheet row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportLeadsResponse reports the outcome of an import.
type ImportLeadsResponse struct {
	Message string           `json:"message"`
	Leads   []LeadResponse   `json:"leads"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// NewLeadResponse maps a domain lead.
func NewLeadResponse(lead *domain.Lead) LeadResponse {
	tags := lead.Tags
	if tags == nil {
		tags = []string{}
	}
	return LeadResponse{
		ID:              lead.ID,
		Name:            lead.Name,
		Phone:           lead.Phone,
		Email:           lead.Email,
		Source:          lead.Source,
		Region:          lead.Region,
		Product:         lead.Product,
		Content:         lead.Content,
		Status:          lead.Status,
		Stage:           lead.Stage,
		Value:           lead.Value,
		AssignedTo:      lead.AssignedTo,
		CreatedBy:       lead.CreatedBy,
		Tags:            tags,
		LastContactedAt: lead.LastContactedAt,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

// NewLeadResponses maps a slice of leads.
func NewLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for i := range leads {
		out = append(out, NewLeadResponse(&leads[i]))
	}
	return out
}

// NewActivityResponse maps a timeline entry.
func NewActivityResponse(entry domain.LeadActivity) ActivityResponse {
	return ActivityResponse{
		ID:          entry.ID,
		Type:        entry.Type,
		ActorID:     entry.ActorID,
		Description: entry.Description,
		OldValue:    entry.OldValue,
		NewValue:    entry.NewValue,
		CreatedAt:   entry.CreatedAt,
	}
}
