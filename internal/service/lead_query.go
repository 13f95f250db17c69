package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/policy"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

// MaxPageSize bounds a single lead listing page.
const MaxPageSize = 100

// LeadFilters are optional listing predicates, combined with AND.
type LeadFilters struct {
	Source     domain.LeadSource
	Region     string
	Status     domain.LeadStatus
	AssignedTo string
	Search     string
}

// LeadPage is one page of a lead listing.
type LeadPage struct {
	Items    []domain.Lead
	Total    int
	Page     int
	PageSize int
}

// ScopeSource resolves the visibility filter of a caller. *policy.ScopeResolver
// is the production implementation.
type ScopeSource interface {
	Resolve(ctx context.Context, principal domain.Principal, resource policy.Resource) (policy.ScopeFilter, error)
}

// LeadQueryService lists leads inside the caller's scope.
type LeadQueryService struct {
	leads  repository.LeadRepository
	scopes ScopeSource
}

// NewLeadQueryService constructs the service.
func NewLeadQueryService(leads repository.LeadRepository, scopes ScopeSource) *LeadQueryService {
	return &LeadQueryService{leads: leads, scopes: scopes}
}

// QueryLeads returns the requested page, newest first, with the pre-pagination total.
// A caller without view access, or whose scope resolves to nothing, gets an empty page.
func (s *LeadQueryService) QueryLeads(ctx context.Context, principal domain.Principal, filters LeadFilters, page, pageSize int) (LeadPage, error) {
	if page <= 0 {
		return LeadPage{}, apperrors.NewInvalidArgument("page must be at least 1", map[string]any{"page": page})
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		return LeadPage{}, apperrors.NewInvalidArgument(
			fmt.Sprintf("page size must be between 1 and %d", MaxPageSize),
			map[string]any{"page_size": pageSize})
	}
	empty := LeadPage{Items: []domain.Lead{}, Page: page, PageSize: pageSize}

	if !policy.Can(principal, policy.ResourceLeads, policy.ActionView) {
		return empty, nil
	}
	scope, err := s.scopes.Resolve(ctx, principal, policy.ResourceLeads)
	if err != nil {
		return LeadPage{}, apperrors.NewInternalError(err)
	}
	if scope.IsDenied() {
		return empty, nil
	}

	items, total, err := s.leads.List(ctx, repository.LeadQuery{
		Scope:      scope,
		Source:     filters.Source,
		Region:     strings.TrimSpace(filters.Region),
		Status:     filters.Status,
		AssignedTo: strings.TrimSpace(filters.AssignedTo),
		Search:     filters.Search,
		Limit:      pageSize,
		Offset:     pageOffset(page, pageSize),
	})
	if err != nil {
		return LeadPage{}, apperrors.NewInternalError(err)
	}
	return LeadPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// pageOffset saturates instead of overflowing, so huge page numbers land past
// the last row.
func pageOffset(page, pageSize int) int {
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}
