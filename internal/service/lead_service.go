package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/observability"
	"github.com/spec-kit/crm-service/internal/policy"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

// LeadService runs the lead workflow: intake, edits, assignment, stage
// changes and deletion. Every mutation is gated by the policy guard and, for
// existing leads, by the caller's scope. Leads outside scope are reported as
// not found.
type LeadService struct {
	leads      repository.LeadRepository
	activities repository.LeadActivityRepository
	users      repository.UserRepository
	scopes     *policy.ScopeResolver
	stages     StagePolicy
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// LeadDependencies bundles collaborators for the lead service.
type LeadDependencies struct {
	LeadRepo     repository.LeadRepository
	ActivityRepo repository.LeadActivityRepository
	UserRepo     repository.UserRepository
	Scopes       *policy.ScopeResolver
	StagePolicy  StagePolicy
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// LeadInput describes a new lead.
type LeadInput struct {
	Name            string
	Phone           string
	Email           string
	Source          domain.LeadSource
	Region          string
	Product         string
	Content         string
	Status          domain.LeadStatus
	Value           *decimal.Decimal
	AssignedTo      *string
	Tags            []string
	LastContactedAt *time.Time
}

// LeadPatch describes a partial update. Nil fields are left unchanged; stage
// and assignee have their own operations.
type LeadPatch struct {
	Name            *string
	Phone           *string
	Email           *string
	Source          *domain.LeadSource
	Region          *string
	Product         *string
	Content         *string
	Status          *domain.LeadStatus
	Value           *decimal.Decimal
	Tags            []string
	LastContactedAt *time.Time
}

// NewLeadService constructs the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stages := deps.StagePolicy
	if stages == nil {
		stages = PermissiveStagePolicy{}
	}
	return &LeadService{
		leads:      deps.LeadRepo,
		activities: deps.ActivityRepo,
		users:      deps.UserRepo,
		scopes:     deps.Scopes,
		stages:     stages,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Create registers a lead in the reception stage. The assignee defaults to
// the caller; naming someone else requires the assign capability.
func (s *LeadService) Create(ctx context.Context, principal domain.Principal, input LeadInput) (*domain.Lead, error) {
	lead, err := s.create(ctx, principal, input, "lead created")
	s.record("create", err)
	return lead, err
}

func (s *LeadService) create(ctx context.Context, principal domain.Principal, input LeadInput, description string) (*domain.Lead, error) {
	if err := policy.Require(principal, policy.ResourceLeads, policy.ActionEdit); err != nil {
		return nil, err
	}
	if err := validateLeadInput(&input); err != nil {
		return nil, err
	}

	assignee := principal.UserID
	if input.AssignedTo != nil && strings.TrimSpace(*input.AssignedTo) != "" {
		assignee = strings.TrimSpace(*input.AssignedTo)
	}
	if assignee != principal.UserID {
		if err := s.checkAssignee(ctx, principal, assignee); err != nil {
			return nil, err
		}
	}

	now := s.now()
	lead := &domain.Lead{
		Name:            input.Name,
		Phone:           input.Phone,
		Email:           input.Email,
		Source:          input.Source,
		Region:          input.Region,
		Product:         input.Product,
		Content:         input.Content,
		Status:          input.Status,
		Stage:           domain.LeadStageReception,
		Value:           input.Value,
		AssignedTo:      &assignee,
		CreatedBy:       principal.UserID,
		Tags:            input.Tags,
		LastContactedAt: input.LastContactedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.appendActivity(ctx, principal, lead.ID, domain.ActivityLeadCreated, description,
		nil, map[string]any{"stage": lead.Stage, "assigned_to": assignee}); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventLeadCreated,
		LeadID:  lead.ID,
		ActorID: principal.UserID,
		Payload: events.LeadCreatedPayload{Name: lead.Name, Source: lead.Source, AssignedTo: assignee},
	})
	return lead, nil
}

// Get returns a lead visible to the caller.
func (s *LeadService) Get(ctx context.Context, principal domain.Principal, id int64) (*domain.Lead, error) {
	if !policy.Can(principal, policy.ResourceLeads, policy.ActionView) {
		return nil, leadNotFound(id)
	}
	return s.loadInScope(ctx, principal, id)
}

// Update applies a patch to a lead inside the caller's scope.
func (s *LeadService) Update(ctx context.Context, principal domain.Principal, id int64, patch LeadPatch) (*domain.Lead, error) {
	lead, err := s.update(ctx, principal, id, patch)
	s.record("update", err)
	return lead, err
}

func (s *LeadService) update(ctx context.Context, principal domain.Principal, id int64, patch LeadPatch) (*domain.Lead, error) {
	if err := policy.Require(principal, policy.ResourceLeads, policy.ActionEdit); err != nil {
		return nil, err
	}
	lead, err := s.loadInScope(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	oldValues, newValues, err := applyPatch(lead, patch)
	if err != nil {
		return nil, err
	}
	if len(newValues) == 0 {
		return lead, nil
	}
	lead.UpdatedAt = s.now()
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, mapRepoError(err, id)
	}

	fields := sortedKeys(newValues)
	if err := s.appendActivity(ctx, principal, lead.ID, domain.ActivityLeadUpdated,
		"updated "+strings.Join(fields, ", "), oldValues, newValues); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventLeadUpdated,
		LeadID:  lead.ID,
		ActorID: principal.UserID,
		Payload: events.LeadUpdatedPayload{Fields: fields},
	})
	return lead, nil
}

// ChangeStage moves a lead to another stage and records the transition.
func (s *LeadService) ChangeStage(ctx context.Context, principal domain.Principal, id int64, stage domain.LeadStage) (*domain.Lead, error) {
	lead, err := s.changeStage(ctx, principal, id, stage)
	s.record("change_stage", err)
	return lead, err
}

func (s *LeadService) changeStage(ctx context.Context, principal domain.Principal, id int64, stage domain.LeadStage) (*domain.Lead, error) {
	if err := policy.Require(principal, policy.ResourceLeads, policy.ActionEdit); err != nil {
		return nil, err
	}
	if !domain.IsValidStage(stage) {
		return nil, apperrors.NewInvalidArgument("unknown stage", map[string]any{"stage": stage})
	}
	lead, err := s.loadInScope(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	oldStage := lead.Stage
	if oldStage == stage {
		return nil, apperrors.NewInvalidArgument("lead is already in this stage", map[string]any{"stage": stage})
	}
	if err := s.stages.Allow(oldStage, stage); err != nil {
		return nil, apperrors.NewInvalidArgument(err.Error(), map[string]any{"from": oldStage, "to": stage})
	}

	lead.Stage = stage
	lead.UpdatedAt = s.now()
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, mapRepoError(err, id)
	}
	if err := s.appendActivity(ctx, principal, lead.ID, domain.ActivityStageChanged,
		fmt.Sprintf("stage changed from %s to %s", oldStage, stage),
		map[string]any{"stage": oldStage}, map[string]any{"stage": stage}); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventLeadStageChanged,
		LeadID:  lead.ID,
		ActorID: principal.UserID,
		Payload: events.LeadStageChangedPayload{OldStage: oldStage, NewStage: stage},
	})
	return lead, nil
}

// Delete hard-removes a lead and its timeline.
func (s *LeadService) Delete(ctx context.Context, principal domain.Principal, id int64) error {
	err := s.delete(ctx, principal, id)
	s.record("delete", err)
	return err
}

func (s *LeadService) delete(ctx context.Context, principal domain.Principal, id int64) error {
	if err := policy.Require(principal, policy.ResourceLeads, policy.ActionEdit); err != nil {
		return err
	}
	if _, err := s.loadInScope(ctx, principal, id); err != nil {
		return err
	}
	if err := s.leads.Delete(ctx, id); err != nil {
		return mapRepoError(err, id)
	}
	s.publishEvent(ctx, events.Event{Type: events.EventLeadDeleted, LeadID: id, ActorID: principal.UserID})
	return nil
}

// Timeline returns a visible lead's activity entries in append order.
func (s *LeadService) Timeline(ctx context.Context, principal domain.Principal, id int64) ([]domain.LeadActivity, error) {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return nil, err
	}
	entries, err := s.activities.ListByLead(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

func (s *LeadService) loadInScope(ctx context.Context, principal domain.Principal, id int64) (*domain.Lead, error) {
	scope, err := s.scopes.Resolve(ctx, principal, policy.ResourceLeads)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return s.loadWithScope(ctx, scope, id)
}

func (s *LeadService) loadWithScope(ctx context.Context, scope policy.ScopeFilter, id int64) (*domain.Lead, error) {
	if scope.IsDenied() {
		return nil, leadNotFound(id)
	}
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id)
	}
	if !scope.Allows(lead.AssignedTo) {
		return nil, leadNotFound(id)
	}
	return lead, nil
}

// checkAssignee verifies the caller may hand leads to userID. Users outside the
// caller's lead scope are reported exactly like users that do not exist.
func (s *LeadService) checkAssignee(ctx context.Context, principal domain.Principal, userID string) error {
	if err := policy.Require(principal, policy.ResourceLeads, policy.ActionAssign); err != nil {
		return err
	}
	scope, err := s.scopes.Resolve(ctx, principal, policy.ResourceLeads)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !scope.Allows(&userID) {
		return userNotFound(userID)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userNotFound(userID)
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

func userNotFound(id string) error {
	return apperrors.NewNotFound("user", map[string]any{"user_id": id})
}

func (s *LeadService) appendActivity(ctx context.Context, principal domain.Principal, leadID int64, kind domain.ActivityType, description string, oldValue, newValue map[string]any) error {
	entry := &domain.LeadActivity{
		LeadID:      leadID,
		Type:        kind,
		ActorID:     principal.UserID,
		Description: description,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := s.activities.Create(ctx, entry); err != nil {
		return apperrors.NewInternalError(fmt.Errorf("append %s activity: %w", kind, err))
	}
	return nil
}

func (s *LeadService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event delivery failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func (s *LeadService) record(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperrors.ToDomainError(err).Code
	}
	s.metrics.RecordLeadOperation(operation, outcome)
}

func validateLeadInput(input *LeadInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.TrimSpace(input.Email)
	input.Region = strings.TrimSpace(input.Region)
	input.Product = strings.TrimSpace(input.Product)
	if input.Name == "" {
		return apperrors.NewInvalidArgument("name is required", nil)
	}
	if input.Source == "" {
		input.Source = domain.LeadSourceManual
	}
	if !domain.IsValidSource(input.Source) {
		return apperrors.NewInvalidArgument("unknown source", map[string]any{"source": input.Source})
	}
	if input.Status == "" {
		input.Status = domain.LeadStatusNew
	}
	if !domain.IsValidStatus(input.Status) {
		return apperrors.NewInvalidArgument("unknown status", map[string]any{"status": input.Status})
	}
	if input.Value != nil && input.Value.IsNegative() {
		return apperrors.NewInvalidArgument("value cannot be negative", nil)
	}
	return nil
}

// applyPatch mutates lead and returns the previous and new values of changed fields.
func applyPatch(lead *domain.Lead, patch LeadPatch) (map[string]any, map[string]any, error) {
	oldValues, newValues := map[string]any{}, map[string]any{}
	setString := func(field string, target *string, value *string) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if v == *target {
			return
		}
		oldValues[field], newValues[field] = *target, v
		*target = v
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, nil, apperrors.NewInvalidArgument("name cannot be empty", nil)
	}
	setString("name", &lead.Name, patch.Name)
	setString("phone", &lead.Phone, patch.Phone)
	setString("email", &lead.Email, patch.Email)
	setString("region", &lead.Region, patch.Region)
	setString("product", &lead.Product, patch.Product)
	setString("content", &lead.Content, patch.Content)

	if patch.Source != nil && *patch.Source != lead.Source {
		if !domain.IsValidSource(*patch.Source) {
			return nil, nil, apperrors.NewInvalidArgument("unknown source", map[string]any{"source": *patch.Source})
		}
		oldValues["source"], newValues["source"] = lead.Source, *patch.Source
		lead.Source = *patch.Source
	}
	if patch.Status != nil && *patch.Status != lead.Status {
		if !domain.IsValidStatus(*patch.Status) {
			return nil, nil, apperrors.NewInvalidArgument("unknown status", map[string]any{"status": *patch.Status})
		}
		oldValues["status"], newValues["status"] = lead.Status, *patch.Status
		lead.Status = *patch.Status
	}
	if patch.Value != nil && (lead.Value == nil || !lead.Value.Equal(*patch.Value)) {
		if patch.Value.IsNegative() {
			return nil, nil, apperrors.NewInvalidArgument("value cannot be negative", nil)
		}
		if lead.Value != nil {
			oldValues["value"] = lead.Value.String()
		} else {
			oldValues["value"] = nil
		}
		newValues["value"] = patch.Value.String()
		v := *patch.Value
		lead.Value = &v
	}
	if patch.Tags != nil && !slices.Equal(patch.Tags, lead.Tags) {
		oldValues["tags"], newValues["tags"] = lead.Tags, patch.Tags
		lead.Tags = patch.Tags
	}
	if patch.LastContactedAt != nil && (lead.LastContactedAt == nil || !lead.LastContactedAt.Equal(*patch.LastContactedAt)) {
		if lead.LastContactedAt != nil {
			oldValues["last_contacted_at"] = *lead.LastContactedAt
		} else {
			oldValues["last_contacted_at"] = nil
		}
		newValues["last_contacted_at"] = *patch.LastContactedAt
		ts := *patch.LastContactedAt
		lead.LastContactedAt = &ts
	}
	return oldValues, newValues, nil
}

func mapRepoError(err error, leadID int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return leadNotFound(leadID)
	}
	return apperrors.NewInternalError(err)
}

func leadNotFound(id int64) error {
	return apperrors.NewNotFound("lead", map[string]any{"lead_id": id})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
