package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/policy"
)

func strPtr(s string) *string { return &s }

func seedLead(t *testing.T, repo LeadRepository, name, assignee string, source domain.LeadSource, status domain.LeadStatus, createdAt time.Time) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{
		Name:       name,
		Source:     source,
		Status:     status,
		Stage:      domain.LeadStageReception,
		AssignedTo: strPtr(assignee),
		CreatedBy:  assignee,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), lead))
	return lead
}

func TestMemoryLeads_ListSortsAndPaginates(t *testing.T) {
	store := NewMemoryStore()
	leads := store.Leads()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 45; i++ {
		seedLead(t, leads, fmt.Sprintf("lead %d", i), "u1", domain.LeadSourceWebsite, domain.LeadStatusNew, base.Add(time.Duration(i)*time.Minute))
	}

	page, total, err := leads.List(context.Background(), LeadQuery{Scope: policy.Unrestricted(), Limit: 20, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 45, total)
	require.Len(t, page, 20)
	assert.Equal(t, "lead 44", page[0].Name)

	page, _, err = leads.List(context.Background(), LeadQuery{Scope: policy.Unrestricted(), Limit: 20, Offset: 40})
	require.NoError(t, err)
	assert.Len(t, page, 5)
	assert.Equal(t, "lead 0", page[4].Name)

	page, total, err = leads.List(context.Background(), LeadQuery{Scope: policy.Unrestricted(), Limit: 20, Offset: 60})
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, 45, total)
}

func TestMemoryLeads_ScopeAndFilters(t *testing.T) {
	store := NewMemoryStore()
	leads := store.Leads()
	now := time.Now()
	seedLead(t, leads, "both", "u1", domain.LeadSourceFacebook, domain.LeadStatusNew, now)
	seedLead(t, leads, "source only", "u1", domain.LeadSourceFacebook, domain.LeadStatusContacted, now)
	seedLead(t, leads, "status only", "u1", domain.LeadSourceZalo, domain.LeadStatusNew, now)
	seedLead(t, leads, "other owner", "u2", domain.LeadSourceFacebook, domain.LeadStatusNew, now)

	page, total, err := leads.List(context.Background(), LeadQuery{
		Scope:  policy.Owner("u1"),
		Source: domain.LeadSourceFacebook,
		Status: domain.LeadStatusNew,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "both", page[0].Name)

	_, total, err = leads.List(context.Background(), LeadQuery{Scope: policy.Denied()})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = leads.List(context.Background(), LeadQuery{Scope: policy.TeamMembers([]string{"u2"})})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestMemoryLeads_DeleteDropsTimeline(t *testing.T) {
	store := NewMemoryStore()
	lead := seedLead(t, store.Leads(), "x", "u1", domain.LeadSourceManual, domain.LeadStatusNew, time.Now())
	require.NoError(t, store.Activities().Create(context.Background(), &domain.LeadActivity{LeadID: lead.ID, Type: domain.ActivityLeadCreated}))

	require.NoError(t, store.Leads().Delete(context.Background(), lead.ID))

	_, err := store.Leads().GetByID(context.Background(), lead.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	entries, err := store.Activities().ListByLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.ErrorIs(t, store.Leads().Delete(context.Background(), lead.ID), pgx.ErrNoRows)
}

func TestMemoryLeads_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	lead := seedLead(t, store.Leads(), "x", "u1", domain.LeadSourceManual, domain.LeadStatusNew, time.Now())

	got, err := store.Leads().GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	*got.AssignedTo = "someone-else"

	again, err := store.Leads().GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", again.AssigneeID())
}

func TestMemoryTeams(t *testing.T) {
	teams := NewMemoryStore().Teams()
	ctx := context.Background()
	require.NoError(t, teams.AddMember(ctx, "lead-1", "sale-2"))
	require.NoError(t, teams.AddMember(ctx, "lead-1", "sale-1"))
	require.NoError(t, teams.AddMember(ctx, "lead-1", "sale-1"))

	members, err := teams.TeamMembersOf(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sale-1", "sale-2"}, members)

	require.NoError(t, teams.RemoveMember(ctx, "lead-1", "sale-2"))
	members, _ = teams.TeamMembersOf(ctx, "lead-1")
	assert.Equal(t, []string{"sale-1"}, members)
}

func TestLeadQuery_SearchIsAccentAndCaseInsensitive(t *testing.T) {
	lead := &domain.Lead{Name: "Nguyễn Văn A", Phone: "0901234567", Email: "NVA@Example.com", AssignedTo: strPtr("u1")}
	scope := policy.Unrestricted()

	assert.True(t, LeadQuery{Scope: scope, Search: "van a"}.Matches(lead))
	assert.True(t, LeadQuery{Scope: scope, Search: "0901234"}.Matches(lead))
	assert.True(t, LeadQuery{Scope: scope, Search: "nva@example"}.Matches(lead))
	assert.False(t, LeadQuery{Scope: scope, Search: "tran"}.Matches(lead))
}

func TestLeadQuery_WhereClause(t *testing.T) {
	where, args := LeadQuery{
		Scope:  policy.TeamMembers([]string{"b", "a"}),
		Source: domain.LeadSourceZalo,
		Search: "50%_Văn",
	}.whereClause()

	assert.Equal(t, "1=1 AND assigned_to=ANY($1) AND source=$2 AND search_text LIKE $3", where)
	require.Len(t, args, 3)
	assert.Equal(t, []string{"a", "b"}, args[0])
	assert.Equal(t, `%50\%\_van%`, args[2])

	where, _ = LeadQuery{Scope: policy.Denied()}.whereClause()
	assert.Equal(t, "1=1 AND 1=0", where)
}

type countingUsers struct {
	UserRepository
	byID    int
	byEmail int
}

func (c *countingUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	c.byID++
	return c.UserRepository.GetByID(ctx, id)
}

func (c *countingUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	c.byEmail++
	return c.UserRepository.GetByEmail(ctx, email)
}

func TestCachedUserRepository(t *testing.T) {
	ctx := context.Background()
	backing := &countingUsers{UserRepository: NewMemoryStore().Users()}
	repo := NewCachedUserRepository(backing, 16, time.Minute)

	user := &domain.User{ID: "u1", Email: "A@example.com", Name: "A", Role: domain.RoleSale}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
	got, err = repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Zero(t, backing.byID)
	assert.Zero(t, backing.byEmail)

	user.Role = domain.RoleLeader
	require.NoError(t, repo.Update(ctx, user))
	got, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLeader, got.Role)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Equal(t, 1, backing.byID)
}
