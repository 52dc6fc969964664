package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	decoder decoder
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		decoder: newDecoder(),
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req model.OrderRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), caller.UserID, &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders. Customers see their own orders; admins see
// everyone's and may narrow by userId.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	filter := model.OrderFilter{Status: model.OrderStatus(r.URL.Query().Get("status"))}
	if filter.Limit, filter.Offset, err = paging(r); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	switch {
	case !caller.IsAdmin():
		filter.UserID = &caller.UserID
	case r.URL.Query().Get("userId") != "":
		userID, err := uuid.Parse(r.URL.Query().Get("userId"))
		if err != nil {
			WriteError(w, model.NewValidationError("userId must be a valid UUID"), h.logger)
			return
		}
		filter.UserID = &userID
	}

	orders, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeList(w, orders, pagination)
}

// GetByID handles GET /api/orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.service.GetByID(r.Context(), caller, id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, order)
}

// Cancel handles POST /api/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	var req model.NoteRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	order, err := h.service.Cancel(r.Context(), caller, id, req.Note)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req model.StatusUpdateRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status, req.Note)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, order)
}

// Refund handles POST /api/orders/{id}/refund.
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req model.NoteRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	order, err := h.service.Refund(r.Context(), id, req.Note)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, order)
}

// UpdatePaymentStatus handles PATCH /api/orders/{id}/payment.
func (h *OrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req model.PaymentStatusRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	order, err := h.service.UpdatePaymentStatus(r.Context(), id, req.PaymentStatus)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, order)
}
