package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
	"github.com/airnode/airtrack-backend/internal/core/mocks"
	"github.com/airnode/airtrack-backend/internal/core/ports"
	"github.com/airnode/airtrack-backend/internal/core/services"
)

func testKeys() services.CacheKeys {
	return services.CacheKeys{
		FlightStatus: func(id uuid.UUID) string { return "flight:" + id.String() + ":status" },
		FlightSearch: func(flightNo string) string { return "flightNo:" + flightNo },
		Baggage:      func(tagID string) string { return "baggage:" + tagID },
	}
}

func newFlightService(
	flightRepo *mocks.MockFlightRepository,
	userRepo *mocks.MockUserRepository,
	publisher *mocks.MockEventPublisher,
	cache *mocks.MockProjectionCache,
) *services.FlightService {
	return services.NewFlightService(
		flightRepo, userRepo, publisher, cache, testKeys(),
		services.FlightCacheTTL{Status: time.Hour, Search: 10 * time.Minute},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func validFlight(id uuid.UUID) *domain.Flight {
	return &domain.Flight{
		ID:           id,
		FlightNo:     "BA117",
		AirlineCode:  "BA",
		Origin:       "LHR",
		Destination:  "JFK",
		Gate:         "B22",
		ScheduledDep: time.Now().Add(2 * time.Hour),
		ScheduledArr: time.Now().Add(10 * time.Hour),
		Status:       domain.FlightScheduled,
		CreatedAt:    time.Now(),
	}
}

func TestFlightService_CreateFlight(t *testing.T) {
	ctx := context.Background()

	t.Run("success publishes and caches", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		userRepo := mocks.NewMockUserRepository()
		publisher := mocks.NewMockEventPublisher()
		cache := mocks.NewMockProjectionCache()
		svc := newFlightService(flightRepo, userRepo, publisher, cache)

		created := validFlight(uuid.New())
		flightRepo.On("Create", ctx, mock.AnythingOfType("*domain.Flight")).Return(created, nil)
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(env domain.Envelope) bool {
			return env.EntityType == domain.EntityFlight &&
				env.ChangeKind == domain.ChangeCreated &&
				env.RoutingKey == "BA117"
		})).Return(nil)
		cache.On("Upsert", mock.Anything, "flight:"+created.ID.String()+":status", mock.Anything, time.Hour).Return(nil)
		cache.On("Invalidate", mock.Anything, "flightNo:BA117").Return(nil)

		flight, err := svc.CreateFlight(ctx, ports.CreateFlightParams{
			FlightNo:     "BA117",
			AirlineCode:  "BA",
			Origin:       "LHR",
			Destination:  "JFK",
			ScheduledDep: created.ScheduledDep,
			ScheduledArr: created.ScheduledArr,
		})
		svc.Shutdown()

		require.NoError(t, err)
		assert.Equal(t, "BA117", flight.FlightNo)
		flightRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("validation failure skips persistence", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		svc := newFlightService(flightRepo, mocks.NewMockUserRepository(), mocks.NewMockEventPublisher(), mocks.NewMockProjectionCache())

		flight, err := svc.CreateFlight(ctx, ports.CreateFlightParams{FlightNo: ""})

		assert.Nil(t, flight)
		require.Error(t, err)
		flightRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		publisher := mocks.NewMockEventPublisher()
		cache := mocks.NewMockProjectionCache()
		svc := newFlightService(flightRepo, mocks.NewMockUserRepository(), publisher, cache)

		created := validFlight(uuid.New())
		flightRepo.On("Create", ctx, mock.AnythingOfType("*domain.Flight")).Return(created, nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)
		cache.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
		cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Maybe()

		flight, err := svc.CreateFlight(ctx, ports.CreateFlightParams{
			FlightNo:     "BA117",
			AirlineCode:  "BA",
			Origin:       "LHR",
			Destination:  "JFK",
			ScheduledDep: created.ScheduledDep,
			ScheduledArr: created.ScheduledArr,
		})
		svc.Shutdown()

		require.NoError(t, err)
		assert.NotNil(t, flight)
	})
}

func TestFlightService_SearchByFlightNo(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips repository", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		cache := mocks.NewMockProjectionCache()
		svc := newFlightService(flightRepo, mocks.NewMockUserRepository(), mocks.NewMockEventPublisher(), cache)

		cached := validFlight(uuid.New())
		cache.On("Get", ctx, "flightNo:BA117", mock.Anything).Run(func(args mock.Arguments) {
			*args.Get(2).(*domain.Flight) = *cached
		}).Return(true, nil)

		flight, err := svc.SearchByFlightNo(ctx, "ba117")

		require.NoError(t, err)
		assert.Equal(t, cached.ID, flight.ID)
		flightRepo.AssertNotCalled(t, "GetByFlightNo", mock.Anything, mock.Anything)
	})

	t.Run("cache miss populates cache", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		cache := mocks.NewMockProjectionCache()
		svc := newFlightService(flightRepo, mocks.NewMockUserRepository(), mocks.NewMockEventPublisher(), cache)

		found := validFlight(uuid.New())
		cache.On("Get", ctx, "flightNo:BA117", mock.Anything).Return(false, nil)
		flightRepo.On("GetByFlightNo", ctx, "BA117").Return(found, nil)
		cache.On("Upsert", ctx, "flightNo:BA117", found, 10*time.Minute).Return(nil)

		flight, err := svc.SearchByFlightNo(ctx, " BA117 ")

		require.NoError(t, err)
		assert.Equal(t, found.ID, flight.ID)
		cache.AssertExpectations(t)
	})

	t.Run("empty flight number rejected", func(t *testing.T) {
		svc := newFlightService(mocks.NewMockFlightRepository(), mocks.NewMockUserRepository(), mocks.NewMockEventPublisher(), mocks.NewMockProjectionCache())

		_, err := svc.SearchByFlightNo(ctx, "  ")
		assert.ErrorIs(t, err, apperrors.ErrFlightNoRequired)
	})
}

func TestFlightService_UpdateFlight(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid status rejected", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		svc := newFlightService(flightRepo, mocks.NewMockUserRepository(), mocks.NewMockEventPublisher(), mocks.NewMockProjectionCache())

		id := uuid.New()
		flightRepo.On("GetByID", ctx, id).Return(validFlight(id), nil)

		bad := domain.FlightStatus("vanished")
		_, err := svc.UpdateFlight(ctx, ports.UpdateFlightParams{
			FlightID: id,
			Update:   domain.FlightUpdate{Status: &bad},
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidFlightStatus)
		flightRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("success publishes updated envelope", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		publisher := mocks.NewMockEventPublisher()
		cache := mocks.NewMockProjectionCache()
		svc := newFlightService(flightRepo, mocks.NewMockUserRepository(), publisher, cache)

		id := uuid.New()
		existing := validFlight(id)
		flightRepo.On("GetByID", ctx, id).Return(existing, nil)
		flightRepo.On("Update", ctx, existing).Return(existing, nil)
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(env domain.Envelope) bool {
			return env.ChangeKind == domain.ChangeUpdated
		})).Return(nil)
		cache.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

		status := domain.FlightBoarding
		flight, err := svc.UpdateFlight(ctx, ports.UpdateFlightParams{
			FlightID: id,
			Update:   domain.FlightUpdate{Status: &status},
		})
		svc.Shutdown()

		require.NoError(t, err)
		assert.Equal(t, domain.FlightBoarding, flight.Status)
		publisher.AssertExpectations(t)
	})
}

func TestFlightService_DeleteFlight(t *testing.T) {
	ctx := context.Background()

	flightRepo := mocks.NewMockFlightRepository()
	publisher := mocks.NewMockEventPublisher()
	cache := mocks.NewMockProjectionCache()
	svc := newFlightService(flightRepo, mocks.NewMockUserRepository(), publisher, cache)

	id := uuid.New()
	deleted := validFlight(id)
	flightRepo.On("Delete", ctx, id).Return(deleted, nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(env domain.Envelope) bool {
		return env.ChangeKind == domain.ChangeDeleted
	})).Return(nil)
	cache.On("Invalidate", mock.Anything, "flight:"+id.String()+":status", "flightNo:BA117").Return(nil)

	flight, err := svc.DeleteFlight(ctx, id)
	svc.Shutdown()

	require.NoError(t, err)
	assert.Equal(t, id, flight.ID)
	publisher.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestFlightService_CheckinPassenger(t *testing.T) {
	ctx := context.Background()
	flightID := uuid.New()
	passengerID := uuid.New()

	passenger := &domain.User{ID: passengerID, Role: domain.RolePassenger}

	t.Run("success", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		userRepo := mocks.NewMockUserRepository()
		publisher := mocks.NewMockEventPublisher()
		cache := mocks.NewMockProjectionCache()
		svc := newFlightService(flightRepo, userRepo, publisher, cache)

		flightRepo.On("GetByID", ctx, flightID).Return(validFlight(flightID), nil)
		userRepo.On("GetByID", ctx, passengerID).Return(passenger, nil)
		flightRepo.On("ListPassengers", ctx, flightID).Return([]uuid.UUID{}, nil)
		flightRepo.On("AddPassenger", ctx, flightID, passengerID).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
		cache.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

		err := svc.CheckinPassenger(ctx, flightID, passengerID)
		svc.Shutdown()

		require.NoError(t, err)
		flightRepo.AssertExpectations(t)
	})

	t.Run("rejects non-passenger role", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := newFlightService(flightRepo, userRepo, mocks.NewMockEventPublisher(), mocks.NewMockProjectionCache())

		flightRepo.On("GetByID", ctx, flightID).Return(validFlight(flightID), nil)
		userRepo.On("GetByID", ctx, passengerID).Return(&domain.User{ID: passengerID, Role: domain.RoleAirline}, nil)

		err := svc.CheckinPassenger(ctx, flightID, passengerID)

		assert.ErrorIs(t, err, apperrors.ErrPassengerRoleOnly)
		flightRepo.AssertNotCalled(t, "AddPassenger", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate checkin", func(t *testing.T) {
		flightRepo := mocks.NewMockFlightRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := newFlightService(flightRepo, userRepo, mocks.NewMockEventPublisher(), mocks.NewMockProjectionCache())

		flightRepo.On("GetByID", ctx, flightID).Return(validFlight(flightID), nil)
		userRepo.On("GetByID", ctx, passengerID).Return(passenger, nil)
		flightRepo.On("ListPassengers", ctx, flightID).Return([]uuid.UUID{passengerID}, nil)

		err := svc.CheckinPassenger(ctx, flightID, passengerID)

		assert.ErrorIs(t, err, apperrors.ErrAlreadyCheckedIn)
		flightRepo.AssertNotCalled(t, "AddPassenger", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestFlightService_PublishPreservesCommitOrder(t *testing.T) {
	ctx := context.Background()
	flightRepo := mocks.NewMockFlightRepository()
	publisher := mocks.NewMockEventPublisher()
	cache := mocks.NewMockProjectionCache()
	svc := newFlightService(flightRepo, mocks.NewMockUserRepository(), publisher, cache)

	id := uuid.New()
	flight := validFlight(id)
	flightRepo.On("Create", ctx, mock.AnythingOfType("*domain.Flight")).Return(flight, nil)
	flightRepo.On("GetByID", ctx, id).Return(flight, nil)
	flightRepo.On("Update", ctx, flight).Return(flight, nil)
	cache.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

	// A slow first publish must not let the second envelope overtake it.
	var mu sync.Mutex
	var kinds []domain.ChangeKind
	first := true
	publisher.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		slow := first
		first = false
		mu.Unlock()
		if slow {
			time.Sleep(50 * time.Millisecond)
		}
		env := args.Get(1).(domain.Envelope)
		mu.Lock()
		kinds = append(kinds, env.ChangeKind)
		mu.Unlock()
	}).Return(nil)

	_, err := svc.CreateFlight(ctx, ports.CreateFlightParams{
		FlightNo:     "BA117",
		AirlineCode:  "BA",
		Origin:       "LHR",
		Destination:  "JFK",
		ScheduledDep: flight.ScheduledDep,
		ScheduledArr: flight.ScheduledArr,
	})
	require.NoError(t, err)

	status := domain.FlightBoarding
	_, err = svc.UpdateFlight(ctx, ports.UpdateFlightParams{
		FlightID: id,
		Update:   domain.FlightUpdate{Status: &status},
	})
	require.NoError(t, err)
	svc.Shutdown()

	assert.Equal(t, []domain.ChangeKind{domain.ChangeCreated, domain.ChangeUpdated}, kinds)
}
