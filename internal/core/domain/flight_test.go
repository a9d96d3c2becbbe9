package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
)

func TestValidFlightStatus(t *testing.T) {
	tests := []struct {
		name   string
		status domain.FlightStatus
		want   bool
	}{
		{"scheduled is valid", domain.FlightScheduled, true},
		{"boarding is valid", domain.FlightBoarding, true},
		{"departed is valid", domain.FlightDeparted, true},
		{"arrived is valid", domain.FlightArrived, true},
		{"delayed is valid", domain.FlightDelayed, true},
		{"cancelled is valid", domain.FlightCancelled, true},
		{"empty is invalid", domain.FlightStatus(""), false},
		{"uppercase is invalid", domain.FlightStatus("SCHEDULED"), false},
		{"unknown is invalid", domain.FlightStatus("diverted"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ValidFlightStatus(tt.status))
		})
	}
}

func TestNewFlight(t *testing.T) {
	createdBy := uuid.New()
	dep := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	arr := dep.Add(2 * time.Hour)

	valid := func() domain.FlightParams {
		return domain.FlightParams{
			FlightNo:     "ba117",
			AirlineCode:  "ba",
			Origin:       "LHR",
			Destination:  "JFK",
			Gate:         " B32 ",
			ScheduledDep: dep,
			ScheduledArr: arr,
			CreatedBy:    createdBy,
		}
	}

	t.Run("valid flight normalizes fields", func(t *testing.T) {
		flight, err := domain.NewFlight(valid())
		require.NoError(t, err)

		assert.Equal(t, "BA117", flight.FlightNo)
		assert.Equal(t, "BA", flight.AirlineCode)
		assert.Equal(t, "B32", flight.Gate)
		assert.Equal(t, domain.FlightScheduled, flight.Status)
		assert.NotEqual(t, uuid.Nil, flight.ID)
		assert.False(t, flight.CreatedAt.IsZero())
	})

	tests := []struct {
		name       string
		mutate     func(*domain.FlightParams)
		errorField string
	}{
		{
			name:       "missing flight number",
			mutate:     func(p *domain.FlightParams) { p.FlightNo = "  " },
			errorField: "flightNo",
		},
		{
			name:       "flight number too long",
			mutate:     func(p *domain.FlightParams) { p.FlightNo = "BA1234567" },
			errorField: "flightNo",
		},
		{
			name:       "missing airline code",
			mutate:     func(p *domain.FlightParams) { p.AirlineCode = "" },
			errorField: "airlineCode",
		},
		{
			name:       "missing origin",
			mutate:     func(p *domain.FlightParams) { p.Origin = "" },
			errorField: "origin",
		},
		{
			name:       "missing destination",
			mutate:     func(p *domain.FlightParams) { p.Destination = "" },
			errorField: "destination",
		},
		{
			name:       "missing schedule",
			mutate:     func(p *domain.FlightParams) { p.ScheduledDep = time.Time{} },
			errorField: "schedule",
		},
		{
			name:       "invalid status",
			mutate:     func(p *domain.FlightParams) { p.Status = "diverted" },
			errorField: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid()
			tt.mutate(&params)

			flight, err := domain.NewFlight(params)
			require.Error(t, err)
			assert.Nil(t, flight)

			var verrs *apperrors.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Errors, tt.errorField)
		})
	}
}

func TestFlightApply(t *testing.T) {
	newFlight := func(t *testing.T) *domain.Flight {
		t.Helper()
		flight, err := domain.NewFlight(domain.FlightParams{
			FlightNo:     "LH402",
			AirlineCode:  "LH",
			Origin:       "FRA",
			Destination:  "EWR",
			ScheduledDep: time.Now().Add(time.Hour),
			ScheduledArr: time.Now().Add(9 * time.Hour),
			CreatedBy:    uuid.New(),
		})
		require.NoError(t, err)
		return flight
	}

	t.Run("updates provided fields and stamps UpdatedAt", func(t *testing.T) {
		flight := newFlight(t)
		gate := "Z60"
		status := domain.FlightBoarding

		err := flight.Apply(domain.FlightUpdate{Gate: &gate, Status: &status})
		require.NoError(t, err)

		assert.Equal(t, "Z60", flight.Gate)
		assert.Equal(t, domain.FlightBoarding, flight.Status)
		require.NotNil(t, flight.UpdatedAt)
	})

	t.Run("nil fields are left unchanged", func(t *testing.T) {
		flight := newFlight(t)
		origin := flight.Origin

		err := flight.Apply(domain.FlightUpdate{})
		require.NoError(t, err)
		assert.Equal(t, origin, flight.Origin)
	})

	t.Run("rejects invalid status without partial update", func(t *testing.T) {
		flight := newFlight(t)
		gate := "A1"
		bad := domain.FlightStatus("grounded")

		err := flight.Apply(domain.FlightUpdate{Gate: &gate, Status: &bad})
		require.ErrorIs(t, err, apperrors.ErrInvalidFlightStatus)
		assert.NotEqual(t, "A1", flight.Gate)
		assert.Nil(t, flight.UpdatedAt)
	})
}
