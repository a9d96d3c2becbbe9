package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
)

// FlightStatus represents the operational state of a flight.
type FlightStatus string

// MaxFlightNoLength caps IATA-style flight numbers (2-char carrier code
// plus up to 4 digits, with room for an operational suffix).
const MaxFlightNoLength = 8

const (
	FlightScheduled FlightStatus = "scheduled"
	FlightBoarding  FlightStatus = "boarding"
	FlightDeparted  FlightStatus = "departed"
	FlightArrived   FlightStatus = "arrived"
	FlightDelayed   FlightStatus = "delayed"
	FlightCancelled FlightStatus = "cancelled"
)

// ValidFlightStatus reports whether s is a known flight status.
func ValidFlightStatus(s FlightStatus) bool {
	switch s {
	case FlightScheduled, FlightBoarding, FlightDeparted, FlightArrived, FlightDelayed, FlightCancelled:
		return true
	}
	return false
}

// Flight is the core domain entity for a tracked flight.
type Flight struct {
	ID           uuid.UUID
	FlightNo     string
	AirlineCode  string
	Origin       string
	Destination  string
	Gate         string
	ScheduledDep time.Time
	ScheduledArr time.Time
	Status       FlightStatus
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// FlightParams holds the input for creating a new flight.
type FlightParams struct {
	FlightNo     string
	AirlineCode  string
	Origin       string
	Destination  string
	Gate         string
	ScheduledDep time.Time
	ScheduledArr time.Time
	Status       FlightStatus
	CreatedBy    uuid.UUID
}

// NewFlight is a factory function to create a valid new flight.
func NewFlight(params FlightParams) (*Flight, error) {
	errs := apperrors.NewValidationErrors()

	flightNo := strings.ToUpper(strings.TrimSpace(params.FlightNo))
	if flightNo == "" {
		errs.Add("flightNo", "Flight number is required")
	} else if len(flightNo) > MaxFlightNoLength {
		errs.Add("flightNo", "Flight number is too long")
	}
	if strings.TrimSpace(params.AirlineCode) == "" {
		errs.Add("airlineCode", "Airline code is required")
	}
	if strings.TrimSpace(params.Origin) == "" {
		errs.Add("origin", "Origin is required")
	}
	if strings.TrimSpace(params.Destination) == "" {
		errs.Add("destination", "Destination is required")
	}
	if params.ScheduledDep.IsZero() || params.ScheduledArr.IsZero() {
		errs.Add("schedule", "Scheduled departure and arrival are required")
	}

	status := params.Status
	if status == "" {
		status = FlightScheduled
	}
	if !ValidFlightStatus(status) {
		errs.Add("status", "Invalid flight status")
	}

	if errs.HasErrors() {
		return nil, errs
	}

	return &Flight{
		ID:           uuid.New(),
		FlightNo:     flightNo,
		AirlineCode:  strings.ToUpper(strings.TrimSpace(params.AirlineCode)),
		Origin:       strings.TrimSpace(params.Origin),
		Destination:  strings.TrimSpace(params.Destination),
		Gate:         strings.TrimSpace(params.Gate),
		ScheduledDep: params.ScheduledDep.UTC(),
		ScheduledArr: params.ScheduledArr.UTC(),
		Status:       status,
		CreatedBy:    params.CreatedBy,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// FlightUpdate holds the mutable fields of a flight. Nil pointers leave
// the current value unchanged. The flight number is immutable.
type FlightUpdate struct {
	Origin       *string
	Destination  *string
	Gate         *string
	ScheduledDep *time.Time
	ScheduledArr *time.Time
	Status       *FlightStatus
}

// Apply updates the flight in place, enforcing field validation.
func (f *Flight) Apply(update FlightUpdate) error {
	if update.Status != nil && !ValidFlightStatus(*update.Status) {
		return apperrors.ErrInvalidFlightStatus
	}

	if update.Origin != nil {
		f.Origin = strings.TrimSpace(*update.Origin)
	}
	if update.Destination != nil {
		f.Destination = strings.TrimSpace(*update.Destination)
	}
	if update.Gate != nil {
		f.Gate = strings.TrimSpace(*update.Gate)
	}
	if update.ScheduledDep != nil {
		f.ScheduledDep = update.ScheduledDep.UTC()
	}
	if update.ScheduledArr != nil {
		f.ScheduledArr = update.ScheduledArr.UTC()
	}
	if update.Status != nil {
		f.Status = *update.Status
	}

	now := time.Now().UTC()
	f.UpdatedAt = &now
	return nil
}
