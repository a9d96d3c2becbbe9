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

var baggageStatusValues = []string{"checkin", "loaded", "inTransit", "unloaded", "atBelt", "lost"}

// BaggageHandler handles HTTP requests for baggage
type BaggageHandler struct {
	baggageService ports.BaggageService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewBaggageHandler creates a new baggage handler
func NewBaggageHandler(
	baggageService ports.BaggageService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *BaggageHandler {
	return &BaggageHandler{
		baggageService: baggageService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "baggage"),
	}
}

// RegisterRoutes sets up the routing for all baggage endpoints. Writes
// are restricted to admin and baggage-handler roles.
func (h *BaggageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListBaggage)
	r.Get("/tag/{tagID}", h.HandleGetBaggageByTag)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireRoles(domain.RoleAdmin, domain.RoleBaggage))
		r.Post("/", h.HandleCreateBaggage)
		r.Patch("/{baggageID}", h.HandleUpdateBaggage)
		r.Delete("/{baggageID}", h.HandleDeleteBaggage)
	})
}

// --- Request/Response DTOs ---

// CreateBaggageRequest defines the expected JSON body for assigning a bag
type CreateBaggageRequest struct {
	TagID        string   `json:"tagId"`
	FlightID     string   `json:"flightId"`
	Weight       *float64 `json:"weight"`
	Status       string   `json:"status"`
	LastLocation string   `json:"lastLocation"`
}

// Validate validates the create baggage request
func (r *CreateBaggageRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("tagId", r.TagID)
	v.Required("flightId", r.FlightID).
		UUID("flightId", r.FlightID)

	if r.Weight != nil {
		v.Custom("weight", *r.Weight >= domain.MinBaggageWeight && *r.Weight <= domain.MaxBaggageWeight,
			"Weight must be between 0.1 and 100 kg")
	}

	if r.Status != "" {
		v.OneOf("status", r.Status, baggageStatusValues)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateBaggageRequest defines the expected JSON body for updating a bag.
// Omitted fields are left unchanged; the tag and flight are immutable.
type UpdateBaggageRequest struct {
	Status       *string `json:"status"`
	LastLocation *string `json:"lastLocation"`
}

// Validate validates the update baggage request
func (r *UpdateBaggageRequest) Validate() error {
	v := validation.NewValidator()

	if r.Status != nil {
		v.OneOf("status", *r.Status, baggageStatusValues)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// BaggageDTO defines the JSON response for baggage.
type BaggageDTO struct {
	ID           string   `json:"id"`
	TagID        string   `json:"tagId"`
	FlightID     string   `json:"flightId"`
	Weight       *float64 `json:"weight,omitempty"`
	Status       string   `json:"status"`
	LastLocation string   `json:"lastLocation,omitempty"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    *string  `json:"updatedAt"`
}

func toBaggageDTO(bag *domain.Baggage) BaggageDTO {
	var updatedAt *string
	if bag.UpdatedAt != nil {
		value := bag.UpdatedAt.Format(time.RFC3339)
		updatedAt = &value
	}

	return BaggageDTO{
		ID:           bag.ID.String(),
		TagID:        bag.TagID,
		FlightID:     bag.FlightID.String(),
		Weight:       bag.Weight,
		Status:       string(bag.Status),
		LastLocation: bag.LastLocation,
		CreatedAt:    bag.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    updatedAt,
	}
}

func toBaggageDTOs(bags []*domain.Baggage) []BaggageDTO {
	response := make([]BaggageDTO, 0, len(bags))
	for _, bag := range bags {
		response = append(response, toBaggageDTO(bag))
	}
	return response
}

// --- Handlers ---

// HandleListBaggage handles GET /baggage?tagId=...&flightId=...&limit=25&offset=0
func (h *BaggageHandler) HandleListBaggage(w http.ResponseWriter, r *http.Request) {
	page := validation.ParsePagination(r, maxListLimit)

	filter := ports.ListBaggageFilter{
		TagID:  r.URL.Query().Get("tagId"),
		Limit:  page.Limit + 1,
		Offset: page.Offset,
	}

	if raw := r.URL.Query().Get("flightId"); raw != "" {
		flightID, err := uuid.Parse(raw)
		if err != nil {
			v := validation.NewValidator()
			v.Custom("flightId", false, "Invalid flight ID format")
			h.errorHandler.Handle(w, r, v.Errors())
			return
		}
		filter.FlightID = &flightID
	}

	bags, err := h.baggageService.ListBaggage(r.Context(), filter)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginatedSimple(w, toBaggageDTOs(bags), page.Limit, page.Offset)
}

// HandleGetBaggageByTag handles GET /baggage/tag/{tagID}
func (h *BaggageHandler) HandleGetBaggageByTag(w http.ResponseWriter, r *http.Request) {
	tagID := chi.URLParam(r, "tagID")

	bag, err := h.baggageService.GetBaggageByTag(r.Context(), tagID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toBaggageDTO(bag))
}

// HandleCreateBaggage handles POST /baggage
func (h *BaggageHandler) HandleCreateBaggage(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Not authorized", Code: "UNAUTHORIZED"})
		return
	}

	req, err := validation.DecodeAndValidate[CreateBaggageRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	bag, err := h.baggageService.CreateBaggage(r.Context(), ports.CreateBaggageParams{
		TagID:        req.TagID,
		FlightID:     uuid.MustParse(req.FlightID),
		Weight:       req.Weight,
		Status:       domain.BaggageStatus(req.Status),
		LastLocation: req.LastLocation,
		ActorID:      claims.UserID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("baggage created",
		"baggage_id", bag.ID,
		"tag_id", bag.TagID,
		"flight_id", bag.FlightID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, toBaggageDTO(bag))
}

// HandleUpdateBaggage handles PATCH /baggage/{baggageID}
func (h *BaggageHandler) HandleUpdateBaggage(w http.ResponseWriter, r *http.Request) {
	baggageID, err := parseUUIDParam(r, "baggageID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateBaggageRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	update := domain.BaggageUpdate{
		LastLocation: req.LastLocation,
	}
	if req.Status != nil {
		status := domain.BaggageStatus(*req.Status)
		update.Status = &status
	}

	bag, err := h.baggageService.UpdateBaggage(r.Context(), ports.UpdateBaggageParams{
		BaggageID: baggageID,
		Update:    update,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("baggage updated",
		"baggage_id", baggageID,
		"status", bag.Status,
	)

	WriteJSON(w, http.StatusOK, toBaggageDTO(bag))
}

// HandleDeleteBaggage handles DELETE /baggage/{baggageID}
func (h *BaggageHandler) HandleDeleteBaggage(w http.ResponseWriter, r *http.Request) {
	baggageID, err := parseUUIDParam(r, "baggageID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	bag, err := h.baggageService.DeleteBaggage(r.Context(), baggageID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("baggage deleted",
		"baggage_id", baggageID,
		"tag_id", bag.TagID,
	)

	WriteJSON(w, http.StatusOK, toBaggageDTO(bag))
}
