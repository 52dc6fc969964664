package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// AddressHandler serves the caller's address book.
type AddressHandler struct {
	service service.AddressService
	decoder decoder
	logger  zerolog.Logger
}

// NewAddressHandler creates a new address book handler.
func NewAddressHandler(service service.AddressService, logger zerolog.Logger) *AddressHandler {
	return &AddressHandler{
		service: service,
		decoder: newDecoder(),
		logger:  logger.With().Str("handler", "address").Logger(),
	}
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	addresses, err := h.service.List(r.Context(), caller.UserID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, addresses)
}

func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req model.AddressRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	address, err := h.service.Create(r.Context(), caller.UserID, &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, address)
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req model.AddressRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	address, err := h.service.Update(r.Context(), caller.UserID, id, &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, address)
}

func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.Delete(r.Context(), caller.UserID, id); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// SetDefault handles PATCH /api/addresses/{id}/default.
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
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

	address, err := h.service.SetDefault(r.Context(), caller.UserID, id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, address)
}
