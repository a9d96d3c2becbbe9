package domain

import (
	"encoding/json"
	"time"

	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
)

// EntityType identifies which kind of record an envelope describes.
type EntityType string

const (
	EntityFlight  EntityType = "flight"
	EntityBaggage EntityType = "baggage"
)

// ChangeKind identifies what happened to the record.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Subscriber channels, named per entity type.
const (
	ChannelFlightUpdate  = "flightUpdate"
	ChannelBaggageUpdate = "baggageUpdate"
)

// Envelope is the canonical serialized change-event record. It is
// immutable once constructed; the payload is pre-serialized at build
// time so later mutation of the source entity cannot leak into it.
type Envelope struct {
	EntityType EntityType      `json:"entityType"`
	ChangeKind ChangeKind      `json:"changeKind"`
	EntityID   string          `json:"entityId"`
	RoutingKey string          `json:"routingKey"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewEnvelope constructs an envelope with the payload serialized up front.
// OccurredAt is assigned at construction time; it is not monotonic per
// routing key across process restarts.
func NewEnvelope(entityType EntityType, kind ChangeKind, entityID, routingKey string, payload any) (Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		raw = data
	}

	env := Envelope{
		EntityType: entityType,
		ChangeKind: kind,
		EntityID:   entityID,
		RoutingKey: routingKey,
		Payload:    raw,
		OccurredAt: time.Now().UTC(),
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Validate checks required fields and enum membership.
func (e Envelope) Validate() error {
	switch e.EntityType {
	case EntityFlight, EntityBaggage:
	default:
		return apperrors.ErrInvalidEntityType
	}

	switch e.ChangeKind {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
	default:
		return apperrors.ErrInvalidChangeKind
	}

	if e.EntityID == "" {
		return apperrors.ErrEntityIDRequired
	}
	if e.RoutingKey == "" {
		return apperrors.ErrRoutingKeyRequired
	}
	return nil
}

// Encode serializes the envelope to its wire form.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses and validates a wire-form envelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Channel maps the envelope's entity type to its subscriber channel name.
func (e Envelope) Channel() string {
	switch e.EntityType {
	case EntityBaggage:
		return ChannelBaggageUpdate
	default:
		return ChannelFlightUpdate
	}
}

// Topic maps the envelope's entity type to a broker topic.
func (e Envelope) Topic(flightTopic, baggageTopic string) string {
	if e.EntityType == EntityBaggage {
		return baggageTopic
	}
	return flightTopic
}

// Notification is the message delivered to live subscribers: an envelope
// tagged with the channel it belongs to.
type Notification struct {
	Channel  string   `json:"channel"`
	Envelope Envelope `json:"event"`
}

// HistoryEntry is a consumed envelope retained for catch-up queries.
// It is bounded in memory and not durable across restarts.
type HistoryEntry struct {
	Channel    string          `json:"channel"`
	EntityType EntityType      `json:"entityType"`
	ChangeKind ChangeKind      `json:"changeKind"`
	EntityID   string          `json:"entityId"`
	RoutingKey string          `json:"routingKey"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewHistoryEntry derives a history entry from a consumed envelope.
func NewHistoryEntry(env Envelope) HistoryEntry {
	return HistoryEntry{
		Channel:    env.Channel(),
		EntityType: env.EntityType,
		ChangeKind: env.ChangeKind,
		EntityID:   env.EntityID,
		RoutingKey: env.RoutingKey,
		Payload:    env.Payload,
		OccurredAt: env.OccurredAt,
	}
}
