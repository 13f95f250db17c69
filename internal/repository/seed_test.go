package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-service/internal/domain"
)

func TestParseSeedUsers(t *testing.T) {
	seeds, err := ParseSeedUsers(" u1, Admin@Example.com ,ADMIN, Root ; u2,s@example.com,sale,Sam,secret;")
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, SeedUser{ID: "u1", Email: "admin@example.com", Role: domain.RoleAdmin, Name: "Root"}, seeds[0])
	assert.Equal(t, "secret", seeds[1].Password)

	empty, err := ParseSeedUsers("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, raw := range []string{"u1,a@example.com,admin", "u1,a@example.com,owner,A", ",a@example.com,sale,A"} {
		_, err := ParseSeedUsers(raw)
		assert.Error(t, err, raw)
	}
}

func TestUpsertUser(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	created, err := UpsertUser(ctx, users, SeedUser{ID: "u1", Email: "a@example.com", Role: domain.RoleSale, Name: "A"}, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", created.PasswordHash)

	updated, err := UpsertUser(ctx, users, SeedUser{ID: "u1", Email: "a@example.com", Role: domain.RoleLeader, Name: "A"}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLeader, updated.Role)
	assert.Equal(t, "hash-1", updated.PasswordHash)
}

func TestSeedTeams(t *testing.T) {
	ctx := context.Background()
	teams := NewMemoryStore().Teams()
	roster := map[string][]string{"lead": {"s1", "s2"}}

	require.NoError(t, SeedTeams(ctx, teams, roster))
	require.NoError(t, SeedTeams(ctx, teams, roster))

	members, err := teams.TeamMembersOf(ctx, "lead")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, members)
}

func TestSeedUsers_MemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seeds, err := ParseSeedUsers("a1,admin@example.com,admin,Ada,pw-a;l1,lead@example.com,leader,Lee")
	require.NoError(t, err)

	var hashed []string
	hash := func(password string) (string, error) {
		hashed = append(hashed, password)
		return "hashed:" + password, nil
	}
	users, err := SeedUsers(ctx, store.Users(), seeds, hash)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []string{"pw-a"}, hashed)

	admin, err := store.Users().GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.Equal(t, "hashed:pw-a", admin.PasswordHash)

	leader, err := store.Users().GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLeader, leader.Role)
	assert.Empty(t, leader.PasswordHash)

	// rerunning keeps the accounts and their roles
	_, err = SeedUsers(ctx, store.Users(), seeds, hash)
	require.NoError(t, err)
	leader, err = store.Users().GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLeader, leader.Role)
}

func TestSeedUsers_HashFailures(t *testing.T) {
	ctx := context.Background()
	seeds := []SeedUser{{ID: "u1", Email: "u1@example.com", Role: domain.RoleSale, Name: "U", Password: "pw"}}

	_, err := SeedUsers(ctx, NewMemoryStore().Users(), seeds, nil)
	assert.Error(t, err)

	boom := errors.New("boom")
	users := NewMemoryStore().Users()
	_, err = SeedUsers(ctx, users, seeds, func(string) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	_, err = users.GetByID(ctx, "u1")
	assert.Error(t, err)
}
