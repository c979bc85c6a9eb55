package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// StatusHandler serves operational status: the running mode, issuer count
// and lookup, and recent pipeline runs.
type StatusHandler struct {
	mode      string
	companies domain.CompanyStore
	runs      domain.RunStore
	logger    *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, companies domain.CompanyStore, runs domain.RunStore, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		mode:      mode,
		companies: companies,
		runs:      runs,
		logger:    logHandler(logger, "status"),
	}
}

// GetStatus responds with the current mode and tracked issuer count.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	count, err := h.companies.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "company count failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":      h.mode,
		"companies": count,
	})
}

// GetCompany responds with one tracked issuer looked up by CIK. Leading
// zeros in the path value are accepted and stripped.
// GET /api/companies/{cik}
func (h *StatusHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	cik := strings.TrimLeft(pathParam(r, "cik"), "0")
	if cik == "" {
		cik = "0"
	}

	company, err := h.companies.GetByCIK(r.Context(), cik)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "company lookup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load company")
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// ListRuns responds with the most recent pipeline run records.
// GET /api/runs
func (h *StatusHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	runs, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list runs failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}
