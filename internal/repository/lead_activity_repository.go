package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// LeadActivityRepository stores timeline entries.
type LeadActivityRepository interface {
	Create(ctx context.Context, activity *domain.LeadActivity) error
	// ListByLead returns entries in append order.
	ListByLead(ctx context.Context, leadID int64) ([]domain.LeadActivity, error)
}

type leadActivityRepository struct {
	pool *pgxpool.Pool
}

// NewLeadActivityRepository builds repository.
func NewLeadActivityRepository(pool *pgxpool.Pool) LeadActivityRepository {
	return &leadActivityRepository{pool: pool}
}

func (r *leadActivityRepository) Create(ctx context.Context, activity *domain.LeadActivity) error {
	const query = `
        INSERT INTO lead_activities (lead_id, activity_type, actor_id, description, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		activity.LeadID,
		activity.Type,
		activity.ActorID,
		activity.Description,
		activity.OldValue,
		activity.NewValue,
	).Scan(&activity.ID, &activity.CreatedAt)
}

func (r *leadActivityRepository) ListByLead(ctx context.Context, leadID int64) ([]domain.LeadActivity, error) {
	const query = `
        SELECT id, lead_id, activity_type, actor_id, description, old_value, new_value, created_at
        FROM lead_activities WHERE lead_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.LeadActivity{}
	for rows.Next() {
		var activity domain.LeadActivity
		if err := rows.Scan(
			&activity.ID,
			&activity.LeadID,
			&activity.Type,
			&activity.ActorID,
			&activity.Description,
			&activity.OldValue,
			&activity.NewValue,
			&activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}
