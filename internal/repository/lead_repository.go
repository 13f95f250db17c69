package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// LeadRepository encapsulates lead persistence.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id int64) (*domain.Lead, error)
	Delete(ctx context.Context, id int64) error
	// List returns one page of matching leads, newest first, and the total match count.
	List(ctx context.Context, query LeadQuery) ([]domain.Lead, int, error)
}

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository instantiates repository.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

const leadColumns = `id, name, phone, email, source, region, product, content, status, stage, value,
               assigned_to, created_by, tags, last_contacted_at, created_at, updated_at`

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	const query = `
        INSERT INTO leads (name, phone, email, source, region, product, content, status, stage, value,
            assigned_to, created_by, tags, last_contacted_at, search_text, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.Source,
		lead.Region,
		lead.Product,
		lead.Content,
		lead.Status,
		lead.Stage,
		lead.Value,
		lead.AssignedTo,
		lead.CreatedBy,
		nonNilTags(lead.Tags),
		lead.LastContactedAt,
		leadSearchText(lead),
		lead.CreatedAt,
		lead.UpdatedAt,
	).Scan(&lead.ID)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads SET name=$1, phone=$2, email=$3, source=$4, region=$5, product=$6, content=$7,
            status=$8, stage=$9, value=$10, assigned_to=$11, tags=$12, last_contacted_at=$13,
            search_text=$14, updated_at=$15
        WHERE id=$16`
	cmd, err := r.pool.Exec(ctx, query,
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.Source,
		lead.Region,
		lead.Product,
		lead.Content,
		lead.Status,
		lead.Stage,
		lead.Value,
		lead.AssignedTo,
		nonNilTags(lead.Tags),
		lead.LastContactedAt,
		leadSearchText(lead),
		lead.UpdatedAt,
		lead.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id=$1`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// Delete removes the lead; its timeline goes with it through ON DELETE CASCADE.
func (r *leadRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) List(ctx context.Context, q LeadQuery) ([]domain.Lead, int, error) {
	if q.Scope.IsDenied() {
		return []domain.Lead{}, 0, nil
	}
	where, args := q.whereClause()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		leadColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := []domain.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *lead)
	}
	return leads, total, rows.Err()
}

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var lead domain.Lead
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.Source,
		&lead.Region,
		&lead.Product,
		&lead.Content,
		&lead.Status,
		&lead.Stage,
		&lead.Value,
		&lead.AssignedTo,
		&lead.CreatedBy,
		&lead.Tags,
		&lead.LastContactedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
