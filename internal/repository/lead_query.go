package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/policy"
	"github.com/spec-kit/crm-service/internal/textutil"
)

// LeadQuery is a scoped, filtered, paginated lead listing. Empty filter
// fields impose no constraint.
type LeadQuery struct {
	Scope      policy.ScopeFilter
	Source     domain.LeadSource
	Region     string
	Status     domain.LeadStatus
	AssignedTo string
	Search     string
	Limit      int
	Offset     int
}

// Matches evaluates the scope and filters against a single lead.
func (q LeadQuery) Matches(lead *domain.Lead) bool {
	if !q.Scope.Allows(lead.AssignedTo) {
		return false
	}
	if q.Source != "" && lead.Source != q.Source {
		return false
	}
	if q.Region != "" && !strings.EqualFold(lead.Region, q.Region) {
		return false
	}
	if q.Status != "" && lead.Status != q.Status {
		return false
	}
	if q.AssignedTo != "" && lead.AssigneeID() != q.AssignedTo {
		return false
	}
	if strings.TrimSpace(q.Search) != "" && !textutil.Contains(leadSearchText(lead), q.Search) {
		return false
	}
	return true
}

// whereClause renders the query as SQL predicates with $n placeholders.
func (q LeadQuery) whereClause() (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	switch q.Scope.Kind {
	case policy.ScopeKindUnrestricted:
	case policy.ScopeKindOwner:
		args = append(args, q.Scope.OwnerID)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	case policy.ScopeKindTeam:
		args = append(args, q.Scope.Members)
		clauses = append(clauses, fmt.Sprintf("assigned_to=ANY($%d)", len(args)))
	default:
		clauses = append(clauses, "1=0")
	}

	if q.Source != "" {
		args = append(args, q.Source)
		clauses = append(clauses, fmt.Sprintf("source=$%d", len(args)))
	}
	if q.Region != "" {
		args = append(args, q.Region)
		clauses = append(clauses, fmt.Sprintf("LOWER(region)=LOWER($%d)", len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if q.AssignedTo != "" {
		args = append(args, q.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if term := textutil.Fold(q.Search); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		clauses = append(clauses, fmt.Sprintf("search_text LIKE $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func leadSearchText(lead *domain.Lead) string {
	return textutil.SearchText(lead.Name, lead.Email, lead.Phone)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
