package handlers

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "clarifier/internal/api/context"
	"clarifier/internal/engine/usage"
	"clarifier/internal/pkg/errors"
	"clarifier/internal/platform/auth"
)

type UsageReporter interface {
	Report(ctx context.Context, orgID string) usage.Stats
}

type UsageHandler struct {
	reporter UsageReporter
}

func NewUsageHandler(reporter UsageReporter) *UsageHandler {
	return &UsageHandler{reporter: reporter}
}

func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authorizedOrg(w, r)
	if !ok {
		return
	}
	errors.WriteJSON(w, http.StatusOK, h.reporter.Report(r.Context(), orgID))
}

// authorizedOrg reads :org_id and rejects it when a token names another org.
func authorizedOrg(w http.ResponseWriter, r *http.Request) (string, bool) {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	orgID := params.ByName("org_id")
	if orgID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Organization ID is required", nil)
		return "", false
	}

	if claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims); ok && claims != nil {
		if claims.OrganizationID != orgID {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Token is not valid for this organization", nil)
			return "", false
		}
	}
	return orgID, true
}
