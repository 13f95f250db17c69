package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/importer"
	"github.com/spec-kit/crm-service/internal/policy"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

// ImportRowError explains why one spreadsheet row was rejected.
type ImportRowError struct {
	Line    int
	Code    string
	Message string
}

// ImportResult holds the leads created and the rows that failed.
type ImportResult struct {
	Leads  []domain.Lead
	Errors []ImportRowError
}

// ImportService creates leads in bulk from parsed spreadsheet rows.
type ImportService struct {
	leads *LeadService
}

// NewImportService creates the service on top of the lead workflow.
func NewImportService(leads *LeadService) *ImportService {
	return &ImportService{leads: leads}
}

// Import creates one lead per row, in file order. Each row goes through the
// same checks as a manual create; failing rows are reported and skipped.
func (s *ImportService) Import(ctx context.Context, principal domain.Principal, rows []importer.Row) (ImportResult, error) {
	result := ImportResult{Leads: []domain.Lead{}, Errors: []ImportRowError{}}
	if err := policy.Require(principal, policy.ResourceLeads, policy.ActionImportExport); err != nil {
		s.leads.record("import", err)
		return result, err
	}

	for _, row := range rows {
		lead, err := s.importRow(ctx, principal, row)
		if err != nil {
			domainErr := apperrors.ToDomainError(err)
			result.Errors = append(result.Errors, ImportRowError{Line: row.Line, Code: domainErr.Code, Message: domainErr.Message})
			continue
		}
		result.Leads = append(result.Leads, *lead)
	}
	s.leads.record("import", nil)

	s.leads.logger.Info("lead import finished",
		zap.String("actor_id", principal.UserID),
		zap.Int("imported", len(result.Leads)),
		zap.Int("failed", len(result.Errors)))
	s.leads.publishEvent(ctx, events.Event{
		Type:    events.EventLeadsImported,
		ActorID: principal.UserID,
		Payload: events.LeadsImportedPayload{Imported: len(result.Leads), Failed: len(result.Errors)},
	})
	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, principal domain.Principal, row importer.Row) (*domain.Lead, error) {
	input, err := rowToInput(row)
	if err != nil {
		return nil, err
	}
	return s.leads.create(ctx, principal, input, "lead imported")
}

func rowToInput(row importer.Row) (LeadInput, error) {
	input := LeadInput{
		Name:    row.Get(importer.FieldName),
		Phone:   row.Get(importer.FieldPhone),
		Email:   row.Get(importer.FieldEmail),
		Source:  domain.LeadSource(normalizeEnum(row.Get(importer.FieldSource))),
		Region:  row.Get(importer.FieldRegion),
		Product: row.Get(importer.FieldProduct),
		Content: row.Get(importer.FieldContent),
		Status:  domain.LeadStatus(normalizeEnum(row.Get(importer.FieldStatus))),
	}
	if raw := row.Get(importer.FieldValue); raw != "" {
		value, err := decimal.NewFromString(strings.NewReplacer(",", "", " ", "").Replace(raw))
		if err != nil {
			return LeadInput{}, apperrors.NewInvalidArgument("value is not a number", map[string]any{"value": raw})
		}
		input.Value = &value
	}
	if assignee := row.Get(importer.FieldAssignedTo); assignee != "" {
		input.AssignedTo = &assignee
	}
	if raw := row.Get(importer.FieldTags); raw != "" {
		for _, tag := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
			if tag = strings.TrimSpace(tag); tag != "" {
				input.Tags = append(input.Tags, tag)
			}
		}
	}
	return input, nil
}

func normalizeEnum(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
}
