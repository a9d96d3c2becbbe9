package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/airnode/airtrack-backend/internal/core/domain"
)

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FlightRepository defines persistence for flights.
type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) (*domain.Flight, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flight, error)
	// GetByFlightNo performs a case-insensitive lookup by flight number.
	GetByFlightNo(ctx context.Context, flightNo string) (*domain.Flight, error)
	// List returns flights newest first. A non-positive limit means no
	// limit.
	List(ctx context.Context, limit, offset int) ([]*domain.Flight, error)
	// ListByPassenger returns the flights a passenger is checked in on.
	ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*domain.Flight, error)
	Update(ctx context.Context, flight *domain.Flight) (*domain.Flight, error)
	Delete(ctx context.Context, id uuid.UUID) (*domain.Flight, error)
	AddPassenger(ctx context.Context, flightID, passengerID uuid.UUID) error
	ListPassengers(ctx context.Context, flightID uuid.UUID) ([]uuid.UUID, error)
}

// ListBaggageFilter narrows a baggage listing. Zero values match everything.
type ListBaggageFilter struct {
	TagID    string
	FlightID *uuid.UUID
	Limit    int
	Offset   int
}

// BaggageRepository defines persistence for baggage records.
type BaggageRepository interface {
	Create(ctx context.Context, bag *domain.Baggage) (*domain.Baggage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Baggage, error)
	GetByTag(ctx context.Context, tagID string) (*domain.Baggage, error)
	List(ctx context.Context, filter ListBaggageFilter) ([]*domain.Baggage, error)
	Update(ctx context.Context, bag *domain.Baggage) (*domain.Baggage, error)
	Delete(ctx context.Context, id uuid.UUID) (*domain.Baggage, error)
}
