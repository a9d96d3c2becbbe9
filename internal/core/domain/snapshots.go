package domain

import "time"

// FlightSnapshot is the projection of a flight shared with observers:
// the envelope payload and the cached read model.
type FlightSnapshot struct {
	FlightID     string     `json:"flightId"`
	FlightNo     string     `json:"flightNo"`
	AirlineCode  string     `json:"airlineCode"`
	Origin       string     `json:"origin"`
	Destination  string     `json:"destination"`
	Gate         string     `json:"gate,omitempty"`
	Status       string     `json:"status"`
	ScheduledDep time.Time  `json:"scheduledDep"`
	ScheduledArr time.Time  `json:"scheduledArr"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// NewFlightSnapshot builds a flight snapshot from a domain flight.
func NewFlightSnapshot(flight *Flight) FlightSnapshot {
	return FlightSnapshot{
		FlightID:     flight.ID.String(),
		FlightNo:     flight.FlightNo,
		AirlineCode:  flight.AirlineCode,
		Origin:       flight.Origin,
		Destination:  flight.Destination,
		Gate:         flight.Gate,
		Status:       string(flight.Status),
		ScheduledDep: flight.ScheduledDep,
		ScheduledArr: flight.ScheduledArr,
		UpdatedAt:    flight.UpdatedAt,
	}
}

// BaggageSnapshot is the projection of a bag shared with observers.
type BaggageSnapshot struct {
	BaggageID    string     `json:"baggageId"`
	TagID        string     `json:"tagId"`
	FlightID     string     `json:"flightId"`
	Status       string     `json:"status"`
	LastLocation string     `json:"lastLocation,omitempty"`
	Weight       *float64   `json:"weight,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// NewBaggageSnapshot builds a baggage snapshot from a domain bag.
func NewBaggageSnapshot(bag *Baggage) BaggageSnapshot {
	return BaggageSnapshot{
		BaggageID:    bag.ID.String(),
		TagID:        bag.TagID,
		FlightID:     bag.FlightID.String(),
		Status:       string(bag.Status),
		LastLocation: bag.LastLocation,
		Weight:       bag.Weight,
		UpdatedAt:    bag.UpdatedAt,
	}
}
