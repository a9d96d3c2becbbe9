package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/airnode/airtrack-backend/internal/adapters/primary/http/middleware"
	"github.com/airnode/airtrack-backend/internal/adapters/primary/validation"
	"github.com/airnode/airtrack-backend/internal/auth"
	"github.com/airnode/airtrack-backend/internal/core/domain"
	"github.com/airnode/airtrack-backend/internal/core/ports"
)

// UserHandler handles HTTP requests for the authenticated user's
// profile and for admin-level user management.
type UserHandler struct {
	userService  ports.UserService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userService ports.UserService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		userService:  userService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "user"),
	}
}

// RegisterMeRoutes registers the /me routes.
func (h *UserHandler) RegisterMeRoutes(r chi.Router) {
	r.Get("/", h.HandleGetMe)
	r.Patch("/", h.HandleUpdateMe)
}

// RegisterAdminRoutes registers the admin /users routes.
func (h *UserHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.HandleListUsers)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", h.HandleGetUser)
		r.Patch("/", h.HandleUpdateUser)
		r.Delete("/", h.HandleDeleteUser)
	})
}

// --- Request DTOs ---

// UpdateMeRequest defines the JSON body for updating one's own profile
type UpdateMeRequest struct {
	FullName string `json:"fullName"`
}

// Validate validates the update request
func (r *UpdateMeRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("fullName", r.FullName).
		MaxLength("fullName", r.FullName, domain.MaxFullNameLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateUserRequest defines the admin JSON body for updating a user.
// Omitted fields are left unchanged.
type UpdateUserRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
}

// Validate validates the admin update request
func (r *UpdateUserRequest) Validate() error {
	v := validation.NewValidator()

	if r.FullName != nil {
		v.Required("fullName", *r.FullName).
			MaxLength("fullName", *r.FullName, domain.MaxFullNameLength)
	}
	if r.Email != nil {
		v.Required("email", *r.Email).
			Email("email", *r.Email)
	}
	if r.Role != nil {
		v.OneOf("role", *r.Role, []string{"admin", "airline", "baggage", "passenger"})
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// --- Handlers ---

// HandleGetMe handles GET /me
func (h *UserHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleUpdateMe handles PATCH /me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[UpdateMeRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.userService.UpdateName(r.Context(), claims.UserID, req.FullName)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleListUsers handles GET /users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]UserDTO, 0, len(users))
	for _, user := range users {
		response = append(response, toUserDTO(user))
	}
	WriteList(w, response)
}

// HandleGetUser handles GET /users/{userID}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleUpdateUser handles PATCH /users/{userID}
func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateUserRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateUserParams{
		UserID:   userID,
		FullName: req.FullName,
		Email:    req.Email,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		params.Role = &role
	}

	user, err := h.userService.UpdateUser(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("user updated", "user_id", userID)

	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleDeleteUser handles DELETE /users/{userID}
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("user deleted", "user_id", userID)

	WriteNoContent(w)
}

// getClaims extracts and validates user claims from the request context
func (h *UserHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}

// parseUUIDParam extracts and validates a UUID path parameter
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		v := validation.NewValidator()
		v.Custom(name, false, "Must be a valid UUID")
		return uuid.Nil, v.Errors()
	}
	return id, nil
}
