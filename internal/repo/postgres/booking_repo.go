package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prodlast/cospace-backend/internal/domain"
)

type BookingRepo interface {
	Create(ctx context.Context, userID, placeID uuid.UUID, startAt, endAt time.Time) (*domain.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	FindByCode(ctx context.Context, code string) (*domain.Booking, error)
	// Cancel transitions an ACTIVE booking to CANCELLED; false when the
	// booking is missing or already terminal.
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)
	// SetVerificationCode stores a code on an ACTIVE booking; false when
	// the booking is missing or already terminal.
	SetVerificationCode(ctx context.Context, id uuid.UUID, code string) (bool, error)
	// RedeemByCode atomically transitions the ACTIVE booking holding the
	// code to REDEEMED and returns it; nil when no ACTIVE booking matches.
	RedeemByCode(ctx context.Context, code string) (*domain.Booking, error)
	ExistsOverlap(ctx context.Context, placeID uuid.UUID, startAt, endAt time.Time) (bool, error)
	ListByPlaceID(ctx context.Context, placeID uuid.UUID) ([]domain.Booking, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
}

type bookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) BookingRepo {
	return &bookingRepo{pool: pool}
}

const bookingCols = `id, user_id, place_id, start_at, end_at, status, verification_code, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.PlaceID, &b.StartAt, &b.EndAt,
		&b.Status, &b.VerificationCode, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) Create(ctx context.Context, userID, placeID uuid.UUID, startAt, endAt time.Time) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (user_id, place_id, start_at, end_at, status)
	VALUES ($1, $2, $3, $4, 'ACTIVE')
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, userID, placeID, startAt, endAt))
	if err != nil {
		var pgErr *pgconn.PgError
		// 23P01: the exclusion constraint on overlapping ACTIVE intervals
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			return nil, domain.ErrPlaceUnavailable
		}
		return nil, err
	}
	return b, nil
}

func (r *bookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepo) FindByCode(ctx context.Context, code string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE verification_code=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepo) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET status='CANCELLED', updated_at=now() WHERE id=$1 AND status='ACTIVE'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *bookingRepo) SetVerificationCode(ctx context.Context, id uuid.UUID, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET verification_code=$2, updated_at=now() WHERE id=$1 AND status='ACTIVE'`, id, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *bookingRepo) RedeemByCode(ctx context.Context, code string) (*domain.Booking, error) {
	const q = `UPDATE bookings
	SET status='REDEEMED', updated_at=now()
	WHERE verification_code=$1 AND status='ACTIVE'
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepo) ExistsOverlap(ctx context.Context, placeID uuid.UUID, startAt, endAt time.Time) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE place_id=$1 AND status='ACTIVE' AND start_at < $3 AND end_at > $2
	)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	if err := r.pool.QueryRow(ctx, q, placeID, startAt, endAt).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *bookingRepo) ListByPlaceID(ctx context.Context, placeID uuid.UUID) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE place_id=$1 ORDER BY start_at DESC`
	return r.list(ctx, q, placeID)
}

func (r *bookingRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE user_id=$1 ORDER BY start_at DESC`
	return r.list(ctx, q, userID)
}

func (r *bookingRepo) list(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.PlaceID, &b.StartAt, &b.EndAt,
			&b.Status, &b.VerificationCode, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
