package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airnode/airtrack-backend/internal/bridge"
	"github.com/airnode/airtrack-backend/internal/core/domain"
)

func newHistoryRouter(history *bridge.History) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHistoryHandler(history, NewErrorHandler(logger), logger)

	r := chi.NewRouter()
	r.Route("/notifications", handler.RegisterRoutes)
	return r
}

func appendFlightEntry(t *testing.T, history *bridge.History, entityID string) {
	t.Helper()
	env, err := domain.NewEnvelope(domain.EntityFlight, domain.ChangeUpdated, entityID, entityID, nil)
	require.NoError(t, err)
	history.Append(domain.NewHistoryEntry(env))
}

func TestHistoryHandler_ListRecent(t *testing.T) {
	t.Run("returns newest entries first", func(t *testing.T) {
		history := bridge.NewHistory(16)
		for i := 0; i < 5; i++ {
			appendFlightEntry(t, history, fmt.Sprintf("f-%d", i))
		}

		req := httptest.NewRequest(stdhttp.MethodGet, "/notifications?limit=3", nil)
		rec := httptest.NewRecorder()
		newHistoryRouter(history).ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data []domain.HistoryEntry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 3)
		assert.Equal(t, "f-4", resp.Data[0].EntityID)
		assert.Equal(t, "f-2", resp.Data[2].EntityID)
	})

	t.Run("filters by channel", func(t *testing.T) {
		history := bridge.NewHistory(16)
		appendFlightEntry(t, history, "f-1")

		env, err := domain.NewEnvelope(domain.EntityBaggage, domain.ChangeCreated, "b-1", "BAG-001", nil)
		require.NoError(t, err)
		history.Append(domain.NewHistoryEntry(env))

		req := httptest.NewRequest(stdhttp.MethodGet, "/notifications?channel=baggageUpdate", nil)
		rec := httptest.NewRecorder()
		newHistoryRouter(history).ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data []domain.HistoryEntry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "b-1", resp.Data[0].EntityID)
	})

	t.Run("non-numeric limit falls back to the full window", func(t *testing.T) {
		history := bridge.NewHistory(16)
		appendFlightEntry(t, history, "f-1")
		appendFlightEntry(t, history, "f-2")

		req := httptest.NewRequest(stdhttp.MethodGet, "/notifications?limit=many", nil)
		rec := httptest.NewRecorder()
		newHistoryRouter(history).ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data []domain.HistoryEntry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 2)
	})

	t.Run("empty history is an empty list", func(t *testing.T) {
		history := bridge.NewHistory(16)

		req := httptest.NewRequest(stdhttp.MethodGet, "/notifications", nil)
		rec := httptest.NewRecorder()
		newHistoryRouter(history).ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":[],"count":0}`, rec.Body.String())
	})
}
