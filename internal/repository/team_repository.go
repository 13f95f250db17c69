package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TeamRepository manages leader rosters. It satisfies policy.RosterLookup.
type TeamRepository interface {
	AddMember(ctx context.Context, leaderID, memberID string) error
	RemoveMember(ctx context.Context, leaderID, memberID string) error
	TeamMembersOf(ctx context.Context, leaderID string) ([]string, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) AddMember(ctx context.Context, leaderID, memberID string) error {
	const query = `
        INSERT INTO team_members (leader_id, member_id)
        VALUES ($1,$2)
        ON CONFLICT (leader_id, member_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, leaderID, memberID)
	return err
}

func (r *teamRepository) RemoveMember(ctx context.Context, leaderID, memberID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM team_members WHERE leader_id=$1 AND member_id=$2`, leaderID, memberID)
	return err
}

func (r *teamRepository) TeamMembersOf(ctx context.Context, leaderID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT member_id FROM team_members WHERE leader_id=$1 ORDER BY member_id`, leaderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// SeedTeams adds every leader -> member pair in roster. Existing pairs are kept.
func SeedTeams(ctx context.Context, repo TeamRepository, roster map[string][]string) error {
	for leaderID, members := range roster {
		for _, memberID := range members {
			if err := repo.AddMember(ctx, leaderID, memberID); err != nil {
				return fmt.Errorf("seed team %s: %w", leaderID, err)
			}
		}
	}
	return nil
}
