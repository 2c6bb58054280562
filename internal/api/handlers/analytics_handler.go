package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"clarifier/internal/pkg/errors"
	"clarifier/internal/platform/models"
)

type AnalyticsService interface {
	Overview(ctx context.Context, orgID string) (*models.AnalyticsSummary, error)
}

type AnalyticsHandler struct {
	service AnalyticsService
	enabled bool
}

func NewAnalyticsHandler(service AnalyticsService, enabled bool) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, enabled: enabled}
}

func (h *AnalyticsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Analytics disabled", nil)
		return
	}

	orgID, ok := authorizedOrg(w, r)
	if !ok {
		return
	}

	if h.service == nil {
		errors.WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeServiceUnavailable, "Database not available", nil)
		return
	}

	summary, err := h.service.Overview(r.Context(), orgID)
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Msg("analytics query failed")
		errors.WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeServiceUnavailable, "Analytics unavailable", nil)
		return
	}

	errors.WriteJSON(w, http.StatusOK, summary)
}
