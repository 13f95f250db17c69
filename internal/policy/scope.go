package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/spec-kit/crm-service/internal/domain"
)

// ScopeKind is the shape of a resolved visibility filter.
type ScopeKind int

const (
	ScopeKindDenied ScopeKind = iota
	ScopeKindOwner
	ScopeKindTeam
	ScopeKindUnrestricted
)

// ScopeFilter restricts which records a principal may see, keyed by the
// record's owner (the assignee for leads).
type ScopeFilter struct {
	Kind    ScopeKind
	OwnerID string
	Members []string
}

func Unrestricted() ScopeFilter { return ScopeFilter{Kind: ScopeKindUnrestricted} }

func Denied() ScopeFilter { return ScopeFilter{Kind: ScopeKindDenied} }

func Owner(userID string) ScopeFilter { return ScopeFilter{Kind: ScopeKindOwner, OwnerID: userID} }

// TeamMembers builds a team filter with a sorted, de-duplicated member list.
func TeamMembers(userIDs []string) ScopeFilter {
	seen := make(map[string]struct{}, len(userIDs))
	members := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	sort.Strings(members)
	return ScopeFilter{Kind: ScopeKindTeam, Members: members}
}

// IsDenied reports whether nothing is visible.
func (f ScopeFilter) IsDenied() bool {
	return f.Kind == ScopeKindDenied
}

// Allows reports whether a record owned by ownerID is inside the filter.
// Unowned records are only visible without restriction.
func (f ScopeFilter) Allows(ownerID *string) bool {
	switch f.Kind {
	case ScopeKindUnrestricted:
		return true
	case ScopeKindOwner:
		return ownerID != nil && *ownerID == f.OwnerID
	case ScopeKindTeam:
		if ownerID == nil {
			return false
		}
		idx := sort.SearchStrings(f.Members, *ownerID)
		return idx < len(f.Members) && f.Members[idx] == *ownerID
	default:
		return false
	}
}

func (f ScopeFilter) String() string {
	switch f.Kind {
	case ScopeKindUnrestricted:
		return "unrestricted"
	case ScopeKindOwner:
		return "owner(" + f.OwnerID + ")"
	case ScopeKindTeam:
		return fmt.Sprintf("team(%d)", len(f.Members))
	default:
		return "denied"
	}
}

// RosterLookup returns the members of the team led by userID.
type RosterLookup interface {
	TeamMembersOf(ctx context.Context, userID string) ([]string, error)
}

// ScopeResolver translates a role's view scope into a concrete filter.
type ScopeResolver struct {
	roster RosterLookup
}

// NewScopeResolver builds a resolver; a nil roster means every team is just its leader.
func NewScopeResolver(roster RosterLookup) *ScopeResolver {
	if roster == nil {
		roster = StaticRoster{}
	}
	return &ScopeResolver{roster: roster}
}

// Resolve returns the visibility filter for the principal on the resource.
func (r *ScopeResolver) Resolve(ctx context.Context, principal domain.Principal, resource Resource) (ScopeFilter, error) {
	switch CapabilitiesFor(principal.Role).For(resource).View {
	case ScopeAll:
		return Unrestricted(), nil
	case ScopeTeam:
		members, err := r.roster.TeamMembersOf(ctx, principal.UserID)
		if err != nil {
			return Denied(), fmt.Errorf("resolve team of %s: %w", principal.UserID, err)
		}
		return TeamMembers(append(members, principal.UserID)), nil
	case ScopePersonal:
		return Owner(principal.UserID), nil
	default:
		return Denied(), nil
	}
}
