package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/airnode/airtrack-backend/internal/core/domain"
)

// RegisterUserParams defines the input for registering a new user.
type RegisterUserParams struct {
	FullName string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Register(ctx context.Context, params RegisterUserParams) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// UpdateUserParams defines the admin input for updating a user.
// Nil fields are left unchanged.
type UpdateUserParams struct {
	UserID   uuid.UUID
	FullName *string
	Email    *string
	Role     *domain.Role
}

// UserService defines the port for user profile and admin management.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateName(ctx context.Context, id uuid.UUID, fullName string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, params UpdateUserParams) (*domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// CreateFlightParams defines the input for creating a flight.
type CreateFlightParams struct {
	FlightNo     string
	AirlineCode  string
	Origin       string
	Destination  string
	Gate         string
	ScheduledDep time.Time
	ScheduledArr time.Time
	Status       domain.FlightStatus
	ActorID      uuid.UUID
}

// UpdateFlightParams defines the input for updating a flight.
type UpdateFlightParams struct {
	FlightID uuid.UUID
	Update   domain.FlightUpdate
}

// FlightService defines the core business operations for flights.
// Every successful mutation triggers the change-notification pipeline:
// an envelope append to the event log, in commit order, and a cache
// projection update; both legs are best effort.
type FlightService interface {
	CreateFlight(ctx context.Context, params CreateFlightParams) (*domain.Flight, error)
	GetFlight(ctx context.Context, id uuid.UUID) (*domain.Flight, error)
	SearchByFlightNo(ctx context.Context, flightNo string) (*domain.Flight, error)
	ListFlights(ctx context.Context, limit, offset int) ([]*domain.Flight, error)
	ListFlightsForPassenger(ctx context.Context, passengerID uuid.UUID) ([]*domain.Flight, error)
	UpdateFlight(ctx context.Context, params UpdateFlightParams) (*domain.Flight, error)
	DeleteFlight(ctx context.Context, id uuid.UUID) (*domain.Flight, error)
	CheckinPassenger(ctx context.Context, flightID, passengerID uuid.UUID) error
	Shutdown()
}

// CreateBaggageParams defines the input for assigning a bag to a flight.
type CreateBaggageParams struct {
	TagID        string
	FlightID     uuid.UUID
	Weight       *float64
	Status       domain.BaggageStatus
	LastLocation string
	ActorID      uuid.UUID
}

// UpdateBaggageParams defines the input for updating a bag.
type UpdateBaggageParams struct {
	BaggageID uuid.UUID
	Update    domain.BaggageUpdate
}

// BaggageService defines the core business operations for baggage.
type BaggageService interface {
	CreateBaggage(ctx context.Context, params CreateBaggageParams) (*domain.Baggage, error)
	GetBaggageByTag(ctx context.Context, tagID string) (*domain.Baggage, error)
	ListBaggage(ctx context.Context, filter ListBaggageFilter) ([]*domain.Baggage, error)
	UpdateBaggage(ctx context.Context, params UpdateBaggageParams) (*domain.Baggage, error)
	DeleteBaggage(ctx context.Context, id uuid.UUID) (*domain.Baggage, error)
	Shutdown()
}
