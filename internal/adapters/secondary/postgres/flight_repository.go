package postgres

import (
	"context"
	"errors"
	"time"

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

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// FlightRepository is the secondary adapter for flight persistence.
type FlightRepository struct {
	pool *pgxpool.Pool
}

var _ ports.FlightRepository = (*FlightRepository)(nil)

// NewFlightRepository creates a new flight repository.
func NewFlightRepository(pool *pgxpool.Pool) ports.FlightRepository {
	return &FlightRepository{pool: pool}
}

const flightColumns = `id, flight_no, airline_code, origin, destination, gate, scheduled_dep, scheduled_arr, status, created_by, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var (
		f         domain.Flight
		gate      pgtype.Text
		createdBy pgtype.UUID
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&f.ID, &f.FlightNo, &f.AirlineCode, &f.Origin, &f.Destination,
		&gate, &f.ScheduledDep, &f.ScheduledArr, &f.Status, &createdBy,
		&f.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.Gate = utils.FromString(gate)
	if createdBy.Valid {
		f.CreatedBy = createdBy.Bytes
	}
	if updatedAt.Valid {
		f.UpdatedAt = &updatedAt.Time
	}
	return &f, nil
}

// Create persists a new flight entity.
func (r *FlightRepository) Create(ctx context.Context, flight *domain.Flight) (*domain.Flight, error) {
	const query = `
INSERT INTO flights (id, flight_no, airline_code, origin, destination, gate, scheduled_dep, scheduled_arr, status, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + flightColumns

	row := r.pool.QueryRow(ctx, query,
		flight.ID, flight.FlightNo, flight.AirlineCode, flight.Origin, flight.Destination,
		utils.ToString(flight.Gate), flight.ScheduledDep, flight.ScheduledArr, string(flight.Status),
		pgtype.UUID{Bytes: flight.CreatedBy, Valid: flight.CreatedBy != uuid.Nil}, flight.CreatedAt,
	)

	created, err := scanFlight(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperrors.ErrFlightExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a single flight by its ID.
func (r *FlightRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	const query = `SELECT ` + flightColumns + ` FROM flights WHERE id = $1`

	flight, err := scanFlight(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFlightNotFound
		}
		return nil, err
	}
	return flight, nil
}

// GetByFlightNo retrieves a flight by its flight number, case-insensitively.
func (r *FlightRepository) GetByFlightNo(ctx context.Context, flightNo string) (*domain.Flight, error) {
	const query = `SELECT ` + flightColumns + ` FROM flights WHERE upper(flight_no) = upper($1)`

	flight, err := scanFlight(r.pool.QueryRow(ctx, query, flightNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFlightNotFound
		}
		return nil, err
	}
	return flight, nil
}

// List retrieves all flights, newest first.
func (r *FlightRepository) List(ctx context.Context, limit, offset int) ([]*domain.Flight, error) {
	// NULLIF turns a non-positive limit into LIMIT NULL, i.e. no limit.
	const query = `
SELECT ` + flightColumns + `
FROM flights
ORDER BY created_at DESC
LIMIT NULLIF(GREATEST($1::int, 0), 0) OFFSET GREATEST($2::int, 0)`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFlights(rows)
}

// ListByPassenger returns the flights a passenger is checked in on,
// most recent check-in first.
func (r *FlightRepository) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*domain.Flight, error) {
	const query = `
SELECT ` + flightColumns + `
FROM flights f
JOIN flight_passengers fp ON fp.flight_id = f.id
WHERE fp.passenger_id = $1
ORDER BY fp.checked_in_at DESC`

	rows, err := r.pool.Query(ctx, query, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFlights(rows)
}

func collectFlights(rows pgx.Rows) ([]*domain.Flight, error) {
	var flights []*domain.Flight
	for rows.Next() {
		flight, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, flight)
	}
	return flights, rows.Err()
}

// Update persists changes to an existing flight entity.
func (r *FlightRepository) Update(ctx context.Context, flight *domain.Flight) (*domain.Flight, error) {
	const query = `
UPDATE flights
SET origin = $2, destination = $3, gate = $4, scheduled_dep = $5, scheduled_arr = $6, status = $7, updated_at = $8
WHERE id = $1
RETURNING ` + flightColumns

	updatedAt := pgtype.Timestamptz{Valid: flight.UpdatedAt != nil}
	if flight.UpdatedAt != nil {
		updatedAt.Time = *flight.UpdatedAt
	}

	row := r.pool.QueryRow(ctx, query,
		flight.ID, flight.Origin, flight.Destination, utils.ToString(flight.Gate),
		flight.ScheduledDep, flight.ScheduledArr, string(flight.Status), updatedAt,
	)

	updated, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFlightNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a flight and returns the deleted record.
func (r *FlightRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	const query = `DELETE FROM flights WHERE id = $1 RETURNING ` + flightColumns

	deleted, err := scanFlight(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFlightNotFound
		}
		return nil, err
	}
	return deleted, nil
}

// AddPassenger records a passenger check-in on the flight manifest.
// Re-checking-in is a no-op.
func (r *FlightRepository) AddPassenger(ctx context.Context, flightID, passengerID uuid.UUID) error {
	const query = `
INSERT INTO flight_passengers (flight_id, passenger_id, checked_in_at)
VALUES ($1, $2, $3)
ON CONFLICT (flight_id, passenger_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, flightID, passengerID, time.Now().UTC())
	return err
}

// ListPassengers returns the IDs of passengers checked into a flight.
func (r *FlightRepository) ListPassengers(ctx context.Context, flightID uuid.UUID) ([]uuid.UUID, error) {
	const query = `SELECT passenger_id FROM flight_passengers WHERE flight_id = $1 ORDER BY checked_in_at`

	rows, err := r.pool.Query(ctx, query, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passengers []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		passengers = append(passengers, id)
	}
	return passengers, rows.Err()
}
