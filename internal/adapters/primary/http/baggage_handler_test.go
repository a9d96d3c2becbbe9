package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/airnode/airtrack-backend/internal/auth"
	"github.com/airnode/airtrack-backend/internal/core/domain"
	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
	"github.com/airnode/airtrack-backend/internal/core/mocks"
	"github.com/airnode/airtrack-backend/internal/core/ports"
)

func newBaggageRouter(svc ports.BaggageService, claims *auth.Claims) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewBaggageHandler(svc, NewErrorHandler(logger), logger)

	r := chi.NewRouter()
	r.Use(withClaims(claims))
	r.Route("/baggage", handler.RegisterRoutes)
	return r
}

func sampleBaggage() *domain.Baggage {
	weight := 18.2
	return &domain.Baggage{
		ID:           uuid.New(),
		TagID:        "BAG-001",
		FlightID:     uuid.New(),
		Weight:       &weight,
		Status:       domain.BaggageCheckin,
		LastLocation: "T5 checkin",
		CreatedBy:    uuid.New(),
		CreatedAt:    time.Now().UTC(),
	}
}

func TestBaggageHandler_Create(t *testing.T) {
	t.Run("baggage staff assigns a bag", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()
		claims := testClaims(domain.RoleBaggage)
		bag := sampleBaggage()

		svc.On("CreateBaggage", mock.Anything, mock.MatchedBy(func(p ports.CreateBaggageParams) bool {
			return p.TagID == "BAG-001" && p.FlightID == bag.FlightID && p.ActorID == claims.UserID
		})).Return(bag, nil)

		body, _ := json.Marshal(map[string]any{
			"tagId":    "BAG-001",
			"flightId": bag.FlightID.String(),
			"weight":   18.2,
		})
		req := httptest.NewRequest(stdhttp.MethodPost, "/baggage", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, claims).ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusCreated, rec.Code)

		var dto BaggageDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, "BAG-001", dto.TagID)
		svc.AssertExpectations(t)
	})

	t.Run("passengers cannot create baggage records", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()

		body, _ := json.Marshal(map[string]any{"tagId": "BAG-001", "flightId": uuid.NewString()})
		req := httptest.NewRequest(stdhttp.MethodPost, "/baggage", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, testClaims(domain.RolePassenger)).ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
		svc.AssertNotCalled(t, "CreateBaggage", mock.Anything, mock.Anything)
	})

	t.Run("rejects out-of-range weight", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()

		body, _ := json.Marshal(map[string]any{
			"tagId":    "BAG-001",
			"flightId": uuid.NewString(),
			"weight":   250,
		})
		req := httptest.NewRequest(stdhttp.MethodPost, "/baggage", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, testClaims(domain.RoleBaggage)).ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
		svc.AssertNotCalled(t, "CreateBaggage", mock.Anything, mock.Anything)
	})
}

func TestBaggageHandler_GetByTag(t *testing.T) {
	t.Run("returns the bag", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()
		bag := sampleBaggage()
		svc.On("GetBaggageByTag", mock.Anything, "BAG-001").Return(bag, nil)

		req := httptest.NewRequest(stdhttp.MethodGet, "/baggage/tag/BAG-001", nil)
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, testClaims(domain.RolePassenger)).ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var dto BaggageDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, bag.ID.String(), dto.ID)
	})

	t.Run("unknown tag is a 404", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()
		svc.On("GetBaggageByTag", mock.Anything, "BAG-404").Return(nil, apperrors.ErrBaggageNotFound)

		req := httptest.NewRequest(stdhttp.MethodGet, "/baggage/tag/BAG-404", nil)
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, testClaims(domain.RolePassenger)).ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	})
}

func TestBaggageHandler_List(t *testing.T) {
	t.Run("filters by flight", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()
		bag := sampleBaggage()

		svc.On("ListBaggage", mock.Anything, mock.MatchedBy(func(f ports.ListBaggageFilter) bool {
			return f.FlightID != nil && *f.FlightID == bag.FlightID
		})).Return([]*domain.Baggage{bag}, nil)

		req := httptest.NewRequest(stdhttp.MethodGet, "/baggage?flightId="+bag.FlightID.String(), nil)
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, testClaims(domain.RolePassenger)).ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("pages with hasMore", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()

		svc.On("ListBaggage", mock.Anything, mock.MatchedBy(func(f ports.ListBaggageFilter) bool {
			return f.Limit == 2 && f.Offset == 0
		})).Return([]*domain.Baggage{sampleBaggage(), sampleBaggage()}, nil)

		req := httptest.NewRequest(stdhttp.MethodGet, "/baggage?limit=1", nil)
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, testClaims(domain.RolePassenger)).ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data       []BaggageDTO `json:"data"`
			Pagination struct {
				HasMore bool `json:"hasMore"`
			} `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 1)
		assert.True(t, resp.Pagination.HasMore)
	})

	t.Run("malformed flight filter is rejected", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()

		req := httptest.NewRequest(stdhttp.MethodGet, "/baggage?flightId=nope", nil)
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, testClaims(domain.RolePassenger)).ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
		svc.AssertNotCalled(t, "ListBaggage", mock.Anything, mock.Anything)
	})
}

func TestBaggageHandler_Update(t *testing.T) {
	t.Run("moves a bag to loaded", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()
		bag := sampleBaggage()
		bag.Status = domain.BaggageLoaded

		svc.On("UpdateBaggage", mock.Anything, mock.MatchedBy(func(p ports.UpdateBaggageParams) bool {
			return p.BaggageID == bag.ID && p.Update.Status != nil && *p.Update.Status == domain.BaggageLoaded
		})).Return(bag, nil)

		body, _ := json.Marshal(map[string]string{"status": "loaded", "lastLocation": "hold 2"})
		req := httptest.NewRequest(stdhttp.MethodPatch, "/baggage/"+bag.ID.String(), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, testClaims(domain.RoleBaggage)).ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var dto BaggageDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, "loaded", dto.Status)
	})

	t.Run("unknown status value is rejected", func(t *testing.T) {
		svc := mocks.NewMockBaggageService()
		id := uuid.New()

		body, _ := json.Marshal(map[string]string{"status": "teleported"})
		req := httptest.NewRequest(stdhttp.MethodPatch, "/baggage/"+id.String(), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newBaggageRouter(svc, testClaims(domain.RoleAdmin)).ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
		svc.AssertNotCalled(t, "UpdateBaggage", mock.Anything, mock.Anything)
	})
}

func TestBaggageHandler_Delete(t *testing.T) {
	svc := mocks.NewMockBaggageService()
	bag := sampleBaggage()
	svc.On("DeleteBaggage", mock.Anything, bag.ID).Return(bag, nil)

	req := httptest.NewRequest(stdhttp.MethodDelete, "/baggage/"+bag.ID.String(), nil)
	rec := httptest.NewRecorder()
	newBaggageRouter(svc, testClaims(domain.RoleAdmin)).ServeHTTP(rec, req)

	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
