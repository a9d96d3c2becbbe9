package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
	"github.com/airnode/airtrack-backend/internal/core/ports"
	"github.com/airnode/airtrack-backend/internal/core/utils"
)

// BaggageRepository is the secondary adapter for baggage persistence.
type BaggageRepository struct {
	pool *pgxpool.Pool
}

var _ ports.BaggageRepository = (*BaggageRepository)(nil)

// NewBaggageRepository creates a new baggage repository.
func NewBaggageRepository(pool *pgxpool.Pool) ports.BaggageRepository {
	return &BaggageRepository{pool: pool}
}

const baggageColumns = `id, tag_id, flight_id, weight, status, last_location, created_by, created_at, updated_at`

func scanBaggage(row pgx.Row) (*domain.Baggage, error) {
	var (
		b            domain.Baggage
		weight       pgtype.Float8
		lastLocation pgtype.Text
		createdBy    pgtype.UUID
		updatedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&b.ID, &b.TagID, &b.FlightID, &weight, &b.Status,
		&lastLocation, &createdBy, &b.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if weight.Valid {
		b.Weight = &weight.Float64
	}
	b.LastLocation = utils.FromString(lastLocation)
	if createdBy.Valid {
		b.CreatedBy = createdBy.Bytes
	}
	if updatedAt.Valid {
		b.UpdatedAt = &updatedAt.Time
	}
	return &b, nil
}

// Create persists a new baggage entity.
func (r *BaggageRepository) Create(ctx context.Context, bag *domain.Baggage) (*domain.Baggage, error) {
	const query = `
INSERT INTO baggage (id, tag_id, flight_id, weight, status, last_location, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + baggageColumns

	weight := pgtype.Float8{Valid: bag.Weight != nil}
	if bag.Weight != nil {
		weight.Float64 = *bag.Weight
	}

	row := r.pool.QueryRow(ctx, query,
		bag.ID, bag.TagID, bag.FlightID, weight, string(bag.Status),
		utils.ToString(bag.LastLocation),
		pgtype.UUID{Bytes: bag.CreatedBy, Valid: bag.CreatedBy != uuid.Nil},
		bag.CreatedAt,
	)

	created, err := scanBaggage(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperrors.ErrBaggageTagExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a single bag by its ID.
func (r *BaggageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Baggage, error) {
	const query = `SELECT ` + baggageColumns + ` FROM baggage WHERE id = $1`

	bag, err := scanBaggage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBaggageNotFound
		}
		return nil, err
	}
	return bag, nil
}

// GetByTag retrieves a bag by its tag ID, case-insensitively.
func (r *BaggageRepository) GetByTag(ctx context.Context, tagID string) (*domain.Baggage, error) {
	const query = `SELECT ` + baggageColumns + ` FROM baggage WHERE upper(tag_id) = upper($1)`

	bag, err := scanBaggage(r.pool.QueryRow(ctx, query, tagID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBaggageNotFound
		}
		return nil, err
	}
	return bag, nil
}

// List retrieves baggage records matching the filter, newest first.
func (r *BaggageRepository) List(ctx context.Context, filter ports.ListBaggageFilter) ([]*domain.Baggage, error) {
	const query = `
SELECT ` + baggageColumns + `
FROM baggage
WHERE ($1::text IS NULL OR upper(tag_id) = upper($1))
  AND ($2::uuid IS NULL OR flight_id = $2)
ORDER BY created_at DESC
LIMIT NULLIF(GREATEST($3::int, 0), 0) OFFSET GREATEST($4::int, 0)`

	tagID := utils.ToString(filter.TagID)
	flightID := pgtype.UUID{Valid: filter.FlightID != nil}
	if filter.FlightID != nil {
		flightID.Bytes = *filter.FlightID
	}

	rows, err := r.pool.Query(ctx, query, tagID, flightID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bags []*domain.Baggage
	for rows.Next() {
		bag, err := scanBaggage(rows)
		if err != nil {
			return nil, err
		}
		bags = append(bags, bag)
	}
	return bags, rows.Err()
}

// Update persists changes to an existing baggage entity.
func (r *BaggageRepository) Update(ctx context.Context, bag *domain.Baggage) (*domain.Baggage, error) {
	const query = `
UPDATE baggage
SET status = $2, last_location = $3, updated_at = $4
WHERE id = $1
RETURNING ` + baggageColumns

	updatedAt := pgtype.Timestamptz{Valid: bag.UpdatedAt != nil}
	if bag.UpdatedAt != nil {
		updatedAt.Time = *bag.UpdatedAt
	}

	row := r.pool.QueryRow(ctx, query,
		bag.ID, string(bag.Status), utils.ToString(bag.LastLocation), updatedAt,
	)

	updated, err := scanBaggage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBaggageNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a bag and returns the deleted record.
func (r *BaggageRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.Baggage, error) {
	const query = `DELETE FROM baggage WHERE id = $1 RETURNING ` + baggageColumns

	deleted, err := scanBaggage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBaggageNotFound
		}
		return nil, err
	}
	return deleted, nil
}
