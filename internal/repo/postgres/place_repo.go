package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prodlast/cospace-backend/internal/domain"
)

type PlaceRepo interface {
	Create(ctx context.Context, placeType domain.PlaceType, capacity int, description string) (*domain.Place, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Place, error)
	List(ctx context.Context) ([]domain.Place, error)
}

type placeRepo struct {
	pool *pgxpool.Pool
}

func NewPlaceRepo(pool *pgxpool.Pool) PlaceRepo {
	return &placeRepo{pool: pool}
}

const placeCols = `id, type, capacity, description, created_at`

func (r *placeRepo) Create(ctx context.Context, placeType domain.PlaceType, capacity int, description string) (*domain.Place, error) {
	const q = `INSERT INTO places (type, capacity, description)
	VALUES ($1, $2, $3)
	RETURNING ` + placeCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Place
	err := r.pool.QueryRow(ctx, q, placeType, capacity, description).Scan(
		&p.ID, &p.Type, &p.Capacity, &p.Description, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *placeRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	const q = `SELECT ` + placeCols + ` FROM places WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Place
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Type, &p.Capacity, &p.Description, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *placeRepo) List(ctx context.Context) ([]domain.Place, error) {
	const q = `SELECT ` + placeCols + ` FROM places ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []domain.Place
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(&p.ID, &p.Type, &p.Capacity, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}
