package rest

import (
	"net/http"
	"strconv"

	"maktaba-backend/internal/service"
)

type ReportsHandler struct {
	reports service.ReportsService
}

func NewReportsHandler(reports service.ReportsService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

func (h *ReportsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			days = n
		}
	}

	points, err := h.reports.Trends(r.Context(), actor, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	summary, err := h.reports.Summary(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
