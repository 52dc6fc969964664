package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// DashboardHandler serves the admin dashboard.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("handler", "dashboard").Logger(),
	}
}

// Stats handles GET /api/dashboard/stats?timeFilter=week|month|year&includeEmpty=true.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	includeEmpty, err := queryBool(r, "includeEmpty")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	filter := model.TimeFilter(r.URL.Query().Get("timeFilter"))
	stats, err := h.service.Stats(r.Context(), filter, includeEmpty != nil && *includeEmpty)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
