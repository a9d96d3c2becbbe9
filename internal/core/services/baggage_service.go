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

// BaggageService implements business logic for baggage tracking. Like
// the flight service, successful mutations fan out to the event log
// and projection cache without failing the request.
type BaggageService struct {
	baggageRepo ports.BaggageRepository
	flightRepo  ports.FlightRepository
	publisher   ports.EventPublisher
	cache       ports.ProjectionCache
	keys        CacheKeys
	ttl         time.Duration
	logger      *slog.Logger

	// publishQueue feeds the single publish worker so envelopes for
	// the same routing key reach the event log in commit order.
	publishQueue chan domain.Envelope
	publishDone  chan struct{}
	wg           sync.WaitGroup
}

var _ ports.BaggageService = (*BaggageService)(nil)

// NewBaggageService creates a new baggage service
func NewBaggageService(
	baggageRepo ports.BaggageRepository,
	flightRepo ports.FlightRepository,
	publisher ports.EventPublisher,
	cache ports.ProjectionCache,
	keys CacheKeys,
	ttl time.Duration,
	logger *slog.Logger,
) *BaggageService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	s := &BaggageService{
		baggageRepo:  baggageRepo,
		flightRepo:   flightRepo,
		publisher:    publisher,
		cache:        cache,
		keys:         keys,
		ttl:          ttl,
		logger:       logger.With("component", "baggage_service"),
		publishQueue: make(chan domain.Envelope, publishQueueSize),
		publishDone:  make(chan struct{}),
	}
	go s.publishLoop()
	return s
}

// publishLoop drains the publish queue one envelope at a time so the
// event log sees each bag's changes in commit order.
func (s *BaggageService) publishLoop() {
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

// CreateBaggage assigns a new bag to a flight
func (s *BaggageService) CreateBaggage(ctx context.Context, params ports.CreateBaggageParams) (*domain.Baggage, error) {
	// The flight must exist before a bag can be attached to it.
	if _, err := s.flightRepo.GetByID(ctx, params.FlightID); err != nil {
		return nil, err
	}

	bag, err := domain.NewBaggage(domain.BaggageParams{
		TagID:        params.TagID,
		FlightID:     params.FlightID,
		Weight:       params.Weight,
		Status:       params.Status,
		LastLocation: params.LastLocation,
		CreatedBy:    params.ActorID,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.baggageRepo.Create(ctx, bag)
	if err != nil {
		return nil, err
	}

	s.afterCommit(created, domain.ChangeCreated)
	return created, nil
}

// GetBaggageByTag looks a bag up by its tag, cache-aside.
func (s *BaggageService) GetBaggageByTag(ctx context.Context, tagID string) (*domain.Baggage, error) {
	tagID = strings.ToUpper(strings.TrimSpace(tagID))
	if tagID == "" {
		return nil, apperrors.ErrTagIDRequired
	}

	key := s.keys.Baggage(tagID)

	var cached domain.Baggage
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	bag, err := s.baggageRepo.GetByTag(ctx, tagID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Upsert(ctx, key, bag, s.ttl); err != nil {
		s.logger.Warn("baggage cache upsert failed", "tag_id", tagID, "error", err)
	}
	return bag, nil
}

// ListBaggage retrieves bags matching the filter
func (s *BaggageService) ListBaggage(ctx context.Context, filter ports.ListBaggageFilter) ([]*domain.Baggage, error) {
	return s.baggageRepo.List(ctx, filter)
}

// UpdateBaggage applies a partial update to a bag
func (s *BaggageService) UpdateBaggage(ctx context.Context, params ports.UpdateBaggageParams) (*domain.Baggage, error) {
	bag, err := s.baggageRepo.GetByID(ctx, params.BaggageID)
	if err != nil {
		return nil, err
	}

	if err := bag.Apply(params.Update); err != nil {
		return nil, err
	}

	updated, err := s.baggageRepo.Update(ctx, bag)
	if err != nil {
		return nil, err
	}

	s.afterCommit(updated, domain.ChangeUpdated)
	return updated, nil
}

// DeleteBaggage removes a bag and reports the deleted record
func (s *BaggageService) DeleteBaggage(ctx context.Context, id uuid.UUID) (*domain.Baggage, error) {
	deleted, err := s.baggageRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.afterCommit(deleted, domain.ChangeDeleted)
	return deleted, nil
}

// afterCommit runs the post-mutation pipeline legs. The envelope is
// built and queued inline to preserve commit order on the event log;
// the cache leg runs in the background.
func (s *BaggageService) afterCommit(bag *domain.Baggage, kind domain.ChangeKind) {
	snapshot := domain.NewBaggageSnapshot(bag)

	env, err := domain.NewEnvelope(
		domain.EntityBaggage, kind,
		bag.ID.String(),
		bag.TagID,
		snapshot,
	)
	if err != nil {
		s.logger.Error("envelope build failed", "baggage_id", bag.ID, "error", err)
	} else {
		s.publishQueue <- env
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		key := s.keys.Baggage(bag.TagID)

		if kind == domain.ChangeDeleted {
			if err := s.cache.Invalidate(ctx, key); err != nil {
				s.logger.Warn("cache invalidate failed", "tag_id", bag.TagID, "error", err)
			}
			return
		}

		// Same shape as the cache-aside read path so either can
		// populate the key.
		if err := s.cache.Upsert(ctx, key, bag, s.ttl); err != nil {
			s.logger.Warn("cache upsert failed", "tag_id", bag.TagID, "error", err)
		}
	}()
}

// Shutdown waits for in-flight background legs to finish and drains
// the publish queue. The service must not be used after Shutdown.
func (s *BaggageService) Shutdown() {
	s.wg.Wait()
	close(s.publishQueue)
	<-s.publishDone
}
