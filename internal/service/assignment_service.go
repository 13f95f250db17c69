package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/policy"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

// AssignFailure reports why a single lead could not be reassigned.
type AssignFailure struct {
	LeadID  int64
	Code    string
	Message string
}

// AssignResult is the outcome of a batch assignment.
type AssignResult struct {
	Assigned []int64
	Failed   []AssignFailure
}

// AssignmentService hands batches of leads to a user.
type AssignmentService struct {
	leads *LeadService
}

// NewAssignmentService creates the service on top of the lead workflow.
func NewAssignmentService(leads *LeadService) *AssignmentService {
	return &AssignmentService{leads: leads}
}

// Assign sets the assignee of each lead in order. The batch is not atomic:
// a lead that is missing or outside the caller's scope fails on its own and
// the rest proceed. Problems with the caller or the target user fail the
// whole call before any lead is touched.
func (s *AssignmentService) Assign(ctx context.Context, principal domain.Principal, leadIDs []int64, targetUserID string) (AssignResult, error) {
	result, err := s.assign(ctx, principal, leadIDs, targetUserID)
	s.leads.record("assign", err)
	return result, err
}

func (s *AssignmentService) assign(ctx context.Context, principal domain.Principal, leadIDs []int64, targetUserID string) (AssignResult, error) {
	result := AssignResult{Assigned: []int64{}, Failed: []AssignFailure{}}
	if err := policy.Require(principal, policy.ResourceLeads, policy.ActionAssign); err != nil {
		return result, err
	}
	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" {
		return result, apperrors.NewInvalidArgument("userId is required", nil)
	}
	if len(leadIDs) == 0 {
		return result, apperrors.NewInvalidArgument("leadIds must not be empty", nil)
	}
	if err := s.leads.checkAssignee(ctx, principal, targetUserID); err != nil {
		return result, err
	}

	scope, err := s.leads.scopes.Resolve(ctx, principal, policy.ResourceLeads)
	if err != nil {
		return result, apperrors.NewInternalError(err)
	}

	for _, id := range leadIDs {
		if err := s.assignOne(ctx, principal, scope, id, targetUserID); err != nil {
			domainErr := apperrors.ToDomainError(err)
			result.Failed = append(result.Failed, AssignFailure{LeadID: id, Code: domainErr.Code, Message: domainErr.Message})
			s.leads.logger.Debug("lead assignment failed", zap.Int64("lead_id", id), zap.Error(err))
			continue
		}
		result.Assigned = append(result.Assigned, id)
	}
	return result, nil
}

func (s *AssignmentService) assignOne(ctx context.Context, principal domain.Principal, scope policy.ScopeFilter, id int64, targetUserID string) error {
	lead, err := s.leads.loadWithScope(ctx, scope, id)
	if err != nil {
		return err
	}
	previous := lead.AssigneeID()
	lead.AssignedTo = &targetUserID
	lead.UpdatedAt = s.leads.now()
	if err := s.leads.leads.Update(ctx, lead); err != nil {
		return mapRepoError(err, id)
	}
	if err := s.leads.appendActivity(ctx, principal, id, domain.ActivityAssign,
		fmt.Sprintf("assigned to %s", targetUserID),
		map[string]any{"assigned_to": nullableID(previous)},
		map[string]any{"assigned_to": targetUserID}); err != nil {
		return err
	}
	s.leads.publishEvent(ctx, events.Event{
		Type:    events.EventLeadAssigned,
		LeadID:  id,
		ActorID: principal.UserID,
		Payload: events.LeadAssignedPayload{PreviousAssignee: previous, NewAssignee: targetUserID},
	})
	return nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
