package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler serves profiles and account administration.
type UserHandler struct {
	service service.UserService
	decoder decoder
	logger  zerolog.Logger
}

// NewUserHandler creates a new account handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		decoder: newDecoder(),
		logger:  logger.With().Str("handler", "user").Logger(),
	}
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	user, err := h.service.GetByID(r.Context(), caller.UserID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	users, pagination, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeList(w, users, pagination)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	user, err := h.service.Create(r.Context(), &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, user)
}

// UpdateRole handles PATCH /api/users/{id}/role.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req model.RoleUpdateRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	user, err := h.service.UpdateRole(r.Context(), caller, id, req.Role)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// SetActive handles PATCH /api/users/{id}/active.
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req model.ActiveUpdateRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	user, err := h.service.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}
