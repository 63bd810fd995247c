package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careclinic/volunteer-desk/internal/domain"
)

// VolunteerRepository defines persistence access for volunteer identities.
type VolunteerRepository interface {
	Create(ctx context.Context, volunteer *domain.Volunteer) error
	Update(ctx context.Context, volunteer *domain.Volunteer) error
	GetByID(ctx context.Context, id string) (*domain.Volunteer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Volunteer, error)
	List(ctx context.Context, limit, offset int) ([]domain.Volunteer, error)
}

type volunteerRepository struct {
	pool *pgxpool.Pool
}

// NewVolunteerRepository returns a Postgres-backed implementation.
func NewVolunteerRepository(pool *pgxpool.Pool) VolunteerRepository {
	return &volunteerRepository{pool: pool}
}

func (r *volunteerRepository) Create(ctx context.Context, volunteer *domain.Volunteer) error {
	const query = `
        INSERT INTO volunteers (name, email, password_hash, role, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		volunteer.Name,
		volunteer.Email,
		volunteer.PasswordHash,
		volunteer.Role,
		volunteer.Active,
	).Scan(&volunteer.ID, &volunteer.CreatedAt, &volunteer.UpdatedAt)
}

func (r *volunteerRepository) Update(ctx context.Context, volunteer *domain.Volunteer) error {
	const query = `
        UPDATE volunteers SET name=$1, email=$2, password_hash=$3, role=$4, active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		volunteer.Name,
		volunteer.Email,
		volunteer.PasswordHash,
		volunteer.Role,
		volunteer.Active,
		volunteer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *volunteerRepository) GetByID(ctx context.Context, id string) (*domain.Volunteer, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active, created_at, updated_at
        FROM volunteers WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *volunteerRepository) GetByEmail(ctx context.Context, email string) (*domain.Volunteer, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active, created_at, updated_at
        FROM volunteers WHERE LOWER(email)=LOWER($1)`
	return r.fetchSingle(ctx, query, email)
}

func (r *volunteerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Volunteer, error) {
	var volunteer domain.Volunteer
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&volunteer.ID,
		&volunteer.Name,
		&volunteer.Email,
		&volunteer.PasswordHash,
		&volunteer.Role,
		&volunteer.Active,
		&volunteer.CreatedAt,
		&volunteer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &volunteer, nil
}

func (r *volunteerRepository) List(ctx context.Context, limit, offset int) ([]domain.Volunteer, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, name, email, password_hash, role, active, created_at, updated_at
        FROM volunteers WHERE active ORDER BY name ASC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Volunteer
	for rows.Next() {
		var volunteer domain.Volunteer
		if err := rows.Scan(
			&volunteer.ID,
			&volunteer.Name,
			&volunteer.Email,
			&volunteer.PasswordHash,
			&volunteer.Role,
			&volunteer.Active,
			&volunteer.CreatedAt,
			&volunteer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, volunteer)
	}
	return result, rows.Err()
}
