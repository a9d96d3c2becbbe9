package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
)

// Baggage weight bounds in kilograms.
const (
	MinBaggageWeight = 0.1
	MaxBaggageWeight = 100
)

// BaggageStatus represents where a bag is in its journey.
type BaggageStatus string

const (
	BaggageCheckin   BaggageStatus = "checkin"
	BaggageLoaded    BaggageStatus = "loaded"
	BaggageInTransit BaggageStatus = "inTransit"
	BaggageUnloaded  BaggageStatus = "unloaded"
	BaggageAtBelt    BaggageStatus = "atBelt"
	BaggageLost      BaggageStatus = "lost"
)

// ValidBaggageStatus reports whether s is a known baggage status.
func ValidBaggageStatus(s BaggageStatus) bool {
	switch s {
	case BaggageCheckin, BaggageLoaded, BaggageInTransit, BaggageUnloaded, BaggageAtBelt, BaggageLost:
		return true
	}
	return false
}

// Baggage is the core domain entity for a tracked bag.
type Baggage struct {
	ID           uuid.UUID
	TagID        string
	FlightID     uuid.UUID
	Weight       *float64
	Status       BaggageStatus
	LastLocation string
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// BaggageParams holds the input for assigning a new bag to a flight.
type BaggageParams struct {
	TagID        string
	FlightID     uuid.UUID
	Weight       *float64
	Status       BaggageStatus
	LastLocation string
	CreatedBy    uuid.UUID
}

// NewBaggage is a factory function to create a valid new baggage record.
func NewBaggage(params BaggageParams) (*Baggage, error) {
	errs := apperrors.NewValidationErrors()

	if strings.TrimSpace(params.TagID) == "" {
		errs.Add("tagId", "Baggage tag ID is required")
	}
	if params.FlightID == uuid.Nil {
		errs.Add("flightId", "Flight ID is required")
	}
	if params.Weight != nil && (*params.Weight < MinBaggageWeight || *params.Weight > MaxBaggageWeight) {
		errs.Add("weight", "Weight must be between 0.1 and 100 kg")
	}

	status := params.Status
	if status == "" {
		status = BaggageCheckin
	}
	if !ValidBaggageStatus(status) {
		errs.Add("status", "Invalid baggage status")
	}

	if errs.HasErrors() {
		return nil, errs
	}

	return &Baggage{
		ID:           uuid.New(),
		TagID:        strings.ToUpper(strings.TrimSpace(params.TagID)),
		FlightID:     params.FlightID,
		Weight:       params.Weight,
		Status:       status,
		LastLocation: strings.TrimSpace(params.LastLocation),
		CreatedBy:    params.CreatedBy,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// BaggageUpdate holds the mutable fields of a bag. Nil pointers leave
// the current value unchanged. The tag ID and flight are immutable.
type BaggageUpdate struct {
	Status       *BaggageStatus
	LastLocation *string
}

// Apply updates the baggage record in place, enforcing field validation.
func (b *Baggage) Apply(update BaggageUpdate) error {
	if update.Status != nil && !ValidBaggageStatus(*update.Status) {
		return apperrors.ErrInvalidBaggageStatus
	}

	if update.Status != nil {
		b.Status = *update.Status
	}
	if update.LastLocation != nil {
		b.LastLocation = strings.TrimSpace(*update.LastLocation)
	}

	now := time.Now().UTC()
	b.UpdatedAt = &now
	return nil
}
