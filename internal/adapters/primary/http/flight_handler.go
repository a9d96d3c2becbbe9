package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/airnode/airtrack-backend/internal/adapters/primary/http/middleware"
	"github.com/airnode/airtrack-backend/internal/adapters/primary/validation"
	"github.com/airnode/airtrack-backend/internal/core/domain"
	"github.com/airnode/airtrack-backend/internal/core/ports"
)

var flightStatusValues = []string{"scheduled", "boarding", "departed", "arrived", "delayed", "cancelled"}

// maxListLimit caps the page size on list endpoints.
const maxListLimit = 100

// FlightHandler handles HTTP requests for flights
type FlightHandler struct {
	flightService ports.FlightService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewFlightHandler creates a new flight handler
func NewFlightHandler(
	flightService ports.FlightService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *FlightHandler {
	return &FlightHandler{
		flightService: flightService,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "flight"),
	}
}

// RegisterRoutes sets up the routing for all flight endpoints. Writes
// are restricted to admin and airline roles by the mounted router.
func (h *FlightHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListFlights)
	r.Get("/search", h.HandleSearchFlight)
	r.Get("/my", h.HandleMyFlights)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireRoles(domain.RoleAdmin, domain.RoleAirline))
		r.Post("/", h.HandleCreateFlight)
	})

	r.Route("/{flightID}", func(r chi.Router) {
		r.Get("/", h.HandleGetFlight)
		r.Post("/checkin", h.HandleCheckin)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRoles(domain.RoleAdmin, domain.RoleAirline))
			r.Patch("/", h.HandleUpdateFlight)
			r.Delete("/", h.HandleDeleteFlight)
		})
	})
}

// --- Request/Response DTOs ---

// CreateFlightRequest defines the expected JSON body for creating a flight
type CreateFlightRequest struct {
	FlightNo     string    `json:"flightNo"`
	AirlineCode  string    `json:"airlineCode"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Gate         string    `json:"gate"`
	ScheduledDep time.Time `json:"scheduledDep"`
	ScheduledArr time.Time `json:"scheduledArr"`
	Status       string    `json:"status"`
}

// Validate validates the create flight request
func (r *CreateFlightRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("flightNo", r.FlightNo).
		MaxLength("flightNo", r.FlightNo, domain.MaxFlightNoLength)

	v.Required("airlineCode", r.AirlineCode)
	v.Required("origin", r.Origin)
	v.Required("destination", r.Destination)

	v.Custom("scheduledDep", !r.ScheduledDep.IsZero(), "Scheduled departure is required")
	v.Custom("scheduledArr", !r.ScheduledArr.IsZero(), "Scheduled arrival is required")

	if r.Status != "" {
		v.OneOf("status", r.Status, flightStatusValues)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateFlightRequest defines the expected JSON body for updating a
// flight. Omitted fields are left unchanged; the flight number is
// immutable.
type UpdateFlightRequest struct {
	Gate         *string    `json:"gate"`
	ScheduledDep *time.Time `json:"scheduledDep"`
	ScheduledArr *time.Time `json:"scheduledArr"`
	Status       *string    `json:"status"`
}

// Validate validates the update flight request
func (r *UpdateFlightRequest) Validate() error {
	v := validation.NewValidator()

	if r.Status != nil {
		v.OneOf("status", *r.Status, flightStatusValues)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// CheckinRequest defines the expected JSON body for a passenger checkin
type CheckinRequest struct {
	PassengerID string `json:"passengerId"`
}

// Validate validates the checkin request
func (r *CheckinRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("passengerId", r.PassengerID).
		UUID("passengerId", r.PassengerID)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// FlightDTO defines the JSON response for flights.
type FlightDTO struct {
	ID           string  `json:"id"`
	FlightNo     string  `json:"flightNo"`
	AirlineCode  string  `json:"airlineCode"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	Gate         string  `json:"gate,omitempty"`
	ScheduledDep string  `json:"scheduledDep"`
	ScheduledArr string  `json:"scheduledArr"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    *string `json:"updatedAt"`
}

func toFlightDTO(flight *domain.Flight) FlightDTO {
	var updatedAt *string
	if flight.UpdatedAt != nil {
		value := flight.UpdatedAt.Format(time.RFC3339)
		updatedAt = &value
	}

	return FlightDTO{
		ID:           flight.ID.String(),
		FlightNo:     flight.FlightNo,
		AirlineCode:  flight.AirlineCode,
		Origin:       flight.Origin,
		Destination:  flight.Destination,
		Gate:         flight.Gate,
		ScheduledDep: flight.ScheduledDep.Format(time.RFC3339),
		ScheduledArr: flight.ScheduledArr.Format(time.RFC3339),
		Status:       string(flight.Status),
		CreatedAt:    flight.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    updatedAt,
	}
}

func toFlightDTOs(flights []*domain.Flight) []FlightDTO {
	response := make([]FlightDTO, 0, len(flights))
	for _, flight := range flights {
		response = append(response, toFlightDTO(flight))
	}
	return response
}

// --- Handlers ---

// HandleListFlights handles GET /flights?limit=25&offset=0
func (h *FlightHandler) HandleListFlights(w http.ResponseWriter, r *http.Request) {
	page := validation.ParsePagination(r, maxListLimit)

	// Fetch one extra row so the response can report hasMore without a
	// count query.
	flights, err := h.flightService.ListFlights(r.Context(), page.Limit+1, page.Offset)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginatedSimple(w, toFlightDTOs(flights), page.Limit, page.Offset)
}

// HandleMyFlights handles GET /flights/my. It lists the flights the
// authenticated passenger is checked in on.
func (h *FlightHandler) HandleMyFlights(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Not authorized", Code: "UNAUTHORIZED"})
		return
	}

	flights, err := h.flightService.ListFlightsForPassenger(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toFlightDTOs(flights))
}

// HandleSearchFlight handles GET /flights/search?flightNo=BA117
func (h *FlightHandler) HandleSearchFlight(w http.ResponseWriter, r *http.Request) {
	flightNo := r.URL.Query().Get("flightNo")
	if flightNo == "" {
		v := validation.NewValidator()
		v.Custom("flightNo", false, "Query parameter flightNo is required")
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	flight, err := h.flightService.SearchByFlightNo(r.Context(), flightNo)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toFlightDTO(flight))
}

// HandleCreateFlight handles POST /flights
func (h *FlightHandler) HandleCreateFlight(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Not authorized", Code: "UNAUTHORIZED"})
		return
	}

	req, err := validation.DecodeAndValidate[CreateFlightRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	flight, err := h.flightService.CreateFlight(r.Context(), ports.CreateFlightParams{
		FlightNo:     req.FlightNo,
		AirlineCode:  req.AirlineCode,
		Origin:       req.Origin,
		Destination:  req.Destination,
		Gate:         req.Gate,
		ScheduledDep: req.ScheduledDep,
		ScheduledArr: req.ScheduledArr,
		Status:       domain.FlightStatus(req.Status),
		ActorID:      claims.UserID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("flight created",
		"flight_id", flight.ID,
		"flight_no", flight.FlightNo,
		"user_id", claims.UserID,
	)

	WriteCreated(w, toFlightDTO(flight))
}

// HandleGetFlight handles GET /flights/{flightID}
func (h *FlightHandler) HandleGetFlight(w http.ResponseWriter, r *http.Request) {
	flightID, err := parseUUIDParam(r, "flightID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	flight, err := h.flightService.GetFlight(r.Context(), flightID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toFlightDTO(flight))
}

// HandleUpdateFlight handles PATCH /flights/{flightID}
func (h *FlightHandler) HandleUpdateFlight(w http.ResponseWriter, r *http.Request) {
	flightID, err := parseUUIDParam(r, "flightID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateFlightRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	update := domain.FlightUpdate{
		Gate:         req.Gate,
		ScheduledDep: req.ScheduledDep,
		ScheduledArr: req.ScheduledArr,
	}
	if req.Status != nil {
		status := domain.FlightStatus(*req.Status)
		update.Status = &status
	}

	flight, err := h.flightService.UpdateFlight(r.Context(), ports.UpdateFlightParams{
		FlightID: flightID,
		Update:   update,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("flight updated",
		"flight_id", flightID,
		"status", flight.Status,
	)

	WriteJSON(w, http.StatusOK, toFlightDTO(flight))
}

// HandleDeleteFlight handles DELETE /flights/{flightID}
func (h *FlightHandler) HandleDeleteFlight(w http.ResponseWriter, r *http.Request) {
	flightID, err := parseUUIDParam(r, "flightID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	flight, err := h.flightService.DeleteFlight(r.Context(), flightID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("flight deleted",
		"flight_id", flightID,
		"flight_no", flight.FlightNo,
	)

	WriteJSON(w, http.StatusOK, toFlightDTO(flight))
}

// HandleCheckin handles POST /flights/{flightID}/checkin. Passengers
// check themselves in; admins may check in any passenger.
func (h *FlightHandler) HandleCheckin(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Not authorized", Code: "UNAUTHORIZED"})
		return
	}

	flightID, err := parseUUIDParam(r, "flightID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	passengerID := claims.UserID
	if claims.Role == domain.RoleAdmin {
		req, err := validation.DecodeAndValidate[CheckinRequest](r)
		if err == nil && req.PassengerID != "" {
			if verr := req.Validate(); verr != nil {
				h.errorHandler.Handle(w, r, verr)
				return
			}
			passengerID = uuid.MustParse(req.PassengerID)
		}
	}

	if err := h.flightService.CheckinPassenger(r.Context(), flightID, passengerID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("passenger checked in",
		"flight_id", flightID,
		"passenger_id", passengerID,
	)

	WriteJSON(w, http.StatusOK, map[string]string{
		"flightId":    flightID.String(),
		"passengerId": passengerID.String(),
		"status":      "checkedIn",
	})
}
