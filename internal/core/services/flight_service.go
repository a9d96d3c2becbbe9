package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
	"github.com/airnode/airtrack-backend/internal/core/ports"
)

// sideEffectTimeout bounds the background publisher and cache legs that
// run after a mutation commits.
const sideEffectTimeout = 5 * time.Second

// publishQueueSize buffers envelopes awaiting the publish worker; a
// mutation only blocks once the backlog exceeds this.
const publishQueueSize = 256

// CacheKeys builds the projection cache keys used by the services. The
// concrete cache adapter supplies the implementation; services stay
// free of key formatting.
type CacheKeys struct {
	FlightStatus func(id uuid.UUID) string
	FlightSearch func(flightNo string) string
	Baggage      func(tagID string) string
}

// FlightService implements business logic for flight management. Every
// successful mutation fans out to the event log and the projection
// cache; both legs are best effort and never fail the request.
type FlightService struct {
	flightRepo ports.FlightRepository
	userRepo   ports.UserRepository
	publisher  ports.EventPublisher
	cache      ports.ProjectionCache
	keys       CacheKeys
	ttl        FlightCacheTTL
	logger     *slog.Logger

	// publishQueue feeds the single publish worker so envelopes for
	// the same routing key reach the event log in commit order.
	publishQueue chan domain.Envelope
	publishDone  chan struct{}
	wg           sync.WaitGroup
}

// FlightCacheTTL bounds the lifetime of flight projections.
type FlightCacheTTL struct {
	Status time.Duration
	Search time.Duration
}

var _ ports.FlightService = (*FlightService)(nil)

// NewFlightService creates a new flight service
func NewFlightService(
	flightRepo ports.FlightRepository,
	userRepo ports.UserRepository,
	publisher ports.EventPublisher,
	cache ports.ProjectionCache,
	keys CacheKeys,
	ttl FlightCacheTTL,
	logger *slog.Logger,
) *FlightService {
	if ttl.Status <= 0 {
		ttl.Status = time.Hour
	}
	if ttl.Search <= 0 {
		ttl.Search = 10 * time.Minute
	}
	s := &FlightService{
		flightRepo:   flightRepo,
		userRepo:     userRepo,
		publisher:    publisher,
		cache:        cache,
		keys:         keys,
		ttl:          ttl,
		logger:       logger.With("component", "flight_service"),
		publishQueue: make(chan domain.Envelope, publishQueueSize),
		publishDone:  make(chan struct{}),
	}
	go s.publishLoop()
	return s
}

// publishLoop drains the publish queue one envelope at a time. Running
// a single worker keeps the event log append order equal to the commit
// order for every routing key.
func (s *FlightService) publishLoop() {
	defer close(s.publishDone)
	for env := range s.publishQueue {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		if err := s.publisher.Publish(ctx, env); err != nil {
			s.logger.Error("event publish failed",
				"entity_id", env.EntityID,
				"change_kind", env.ChangeKind,
				"error", err,
			)
		}
		cancel()
	}
}

// CreateFlight handles the use case for registering a new flight
func (s *FlightService) CreateFlight(ctx context.Context, params ports.CreateFlightParams) (*domain.Flight, error) {
	flight, err := domain.NewFlight(domain.FlightParams{
		FlightNo:     params.FlightNo,
		AirlineCode:  params.AirlineCode,
		Origin:       params.Origin,
		Destination:  params.Destination,
		Gate:         params.Gate,
		ScheduledDep: params.ScheduledDep,
		ScheduledArr: params.ScheduledArr,
		Status:       params.Status,
		CreatedBy:    params.ActorID,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.flightRepo.Create(ctx, flight)
	if err != nil {
		return nil, err
	}

	s.afterCommit(created, domain.ChangeCreated)
	return created, nil
}

// GetFlight retrieves a single flight by ID
func (s *FlightService) GetFlight(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	return s.flightRepo.GetByID(ctx, id)
}

// SearchByFlightNo looks a flight up by its public flight number. The
// lookup is cache-aside: a hit skips the repository, a miss populates
// the cache for subsequent calls.
func (s *FlightService) SearchByFlightNo(ctx context.Context, flightNo string) (*domain.Flight, error) {
	flightNo = strings.ToUpper(strings.TrimSpace(flightNo))
	if flightNo == "" {
		return nil, apperrors.ErrFlightNoRequired
	}

	key := s.keys.FlightSearch(flightNo)

	var cached domain.Flight
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	flight, err := s.flightRepo.GetByFlightNo(ctx, flightNo)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Upsert(ctx, key, flight, s.ttl.Search); err != nil {
		s.logger.Warn("flight search cache upsert failed", "flight_no", flightNo, "error", err)
	}
	return flight, nil
}

// ListFlights retrieves flights newest first, paged
func (s *FlightService) ListFlights(ctx context.Context, limit, offset int) ([]*domain.Flight, error) {
	return s.flightRepo.List(ctx, limit, offset)
}

// ListFlightsForPassenger retrieves the flights a passenger is checked in on
func (s *FlightService) ListFlightsForPassenger(ctx context.Context, passengerID uuid.UUID) ([]*domain.Flight, error) {
	return s.flightRepo.ListByPassenger(ctx, passengerID)
}

// UpdateFlight applies a partial update to a flight
func (s *FlightService) UpdateFlight(ctx context.Context, params ports.UpdateFlightParams) (*domain.Flight, error) {
	flight, err := s.flightRepo.GetByID(ctx, params.FlightID)
	if err != nil {
		return nil, err
	}

	if err := flight.Apply(params.Update); err != nil {
		return nil, err
	}

	updated, err := s.flightRepo.Update(ctx, flight)
	if err != nil {
		return nil, err
	}

	s.afterCommit(updated, domain.ChangeUpdated)
	return updated, nil
}

// DeleteFlight removes a flight and reports the deleted record
func (s *FlightService) DeleteFlight(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	deleted, err := s.flightRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.afterCommit(deleted, domain.ChangeDeleted)
	return deleted, nil
}

// CheckinPassenger adds a passenger to the flight manifest. Only users
// with the passenger role can be checked in, and only once per flight.
func (s *FlightService) CheckinPassenger(ctx context.Context, flightID, passengerID uuid.UUID) error {
	flight, err := s.flightRepo.GetByID(ctx, flightID)
	if err != nil {
		return err
	}

	passenger, err := s.userRepo.GetByID(ctx, passengerID)
	if err != nil {
		return err
	}
	if passenger.Role != domain.RolePassenger {
		return apperrors.ErrPassengerRoleOnly
	}

	manifest, err := s.flightRepo.ListPassengers(ctx, flightID)
	if err != nil {
		return err
	}
	for _, id := range manifest {
		if id == passengerID {
			return apperrors.ErrAlreadyCheckedIn
		}
	}

	if err := s.flightRepo.AddPassenger(ctx, flightID, passengerID); err != nil {
		return err
	}

	s.afterCommit(flight, domain.ChangeUpdated)
	return nil
}

// afterCommit runs the post-mutation pipeline legs: append an envelope
// to the event log and refresh the projection cache. The envelope is
// built and queued before afterCommit returns so the event log sees
// mutations in commit order; the cache leg runs in the background.
// Failures are logged, never surfaced to the caller.
func (s *FlightService) afterCommit(flight *domain.Flight, kind domain.ChangeKind) {
	snapshot := domain.NewFlightSnapshot(flight)

	env, err := domain.NewEnvelope(
		domain.EntityFlight, kind,
		flight.ID.String(),
		flight.FlightNo,
		snapshot,
	)
	if err != nil {
		s.logger.Error("envelope build failed", "flight_id", flight.ID, "error", err)
	} else {
		s.publishQueue <- env
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		statusKey := s.keys.FlightStatus(flight.ID)
		searchKey := s.keys.FlightSearch(flight.FlightNo)

		if kind == domain.ChangeDeleted {
			if err := s.cache.Invalidate(ctx, statusKey, searchKey); err != nil {
				s.logger.Warn("cache invalidate failed", "flight_id", flight.ID, "error", err)
			}
			return
		}

		if err := s.cache.Upsert(ctx, statusKey, snapshot, s.ttl.Status); err != nil {
			s.logger.Warn("cache upsert failed", "flight_id", flight.ID, "error", err)
		}
		// The search projection caches the full record; drop it so the
		// next lookup repopulates from the fresh row.
		if err := s.cache.Invalidate(ctx, searchKey); err != nil {
			s.logger.Warn("cache invalidate failed", "flight_no", flight.FlightNo, "error", err)
		}
	}()
}

// Shutdown waits for in-flight background legs to finish and drains
// the publish queue. The service must not be used after Shutdown.
func (s *FlightService) Shutdown() {
	s.wg.Wait()
	close(s.publishQueue)
	<-s.publishDone
}
