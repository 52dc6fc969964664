package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CouponHandler serves coupon checks and coupon administration.
type CouponHandler struct {
	service service.CouponService
	decoder decoder
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		decoder: newDecoder(),
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// Check handles POST /api/coupons/check. It reports the discount without
// consuming a use.
func (h *CouponHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req model.CouponCheckRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	resp, err := h.service.Check(r.Context(), &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	coupons, pagination, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeList(w, coupons, pagination)
}

func (h *CouponHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	c, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, c)
}

func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CouponRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	c, err := h.service.Create(r.Context(), &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, c)
}

func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req model.CouponRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	c, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, c)
}

func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}
