package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// AlertHandler serves the notification audit trail.
type AlertHandler struct {
	alerts domain.AlertStore
	logger *slog.Logger
}

// NewAlertHandler creates an AlertHandler with the given store and logger.
func NewAlertHandler(alerts domain.AlertStore, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		logger: logHandler(logger, "alerts"),
	}
}

// listAlertsResponse wraps the list alerts response.
type listAlertsResponse struct {
	Alerts []domain.Alert `json:"alerts"`
	Count  int            `json:"count"`
}

// ListAlerts returns recently recorded alerts, most recent first.
// GET /api/alerts?limit=50
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	alerts, err := h.alerts.ListRecent(r.Context(), opts.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list alerts failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	if alerts == nil {
		alerts = []domain.Alert{}
	}

	writeJSON(w, http.StatusOK, listAlertsResponse{
		Alerts: alerts,
		Count:  len(alerts),
	})
}
