package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	apiContext "clarifier/internal/api/context"
	"clarifier/internal/engine/clarify"
	"clarifier/internal/engine/pipeline"
	"clarifier/internal/engine/quota"
	"clarifier/internal/pkg/errors"
	"clarifier/internal/platform/auth"
)

const maxTicketBytes = 1 << 20

type Runner interface {
	Run(ctx context.Context, ticket clarify.TicketRequest) (*clarify.Result, error)
}

type ClarifyHandler struct {
	runner Runner
}

func NewClarifyHandler(runner Runner) *ClarifyHandler {
	return &ClarifyHandler{runner: runner}
}

type clarifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IssueType   string `json:"issueType"`
	Priority    string `json:"priority"`
	OrgID       string `json:"orgId"`
}

func (h *ClarifyHandler) Clarify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTicketBytes)

	var req clarifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	// A token binds the request to its organization.
	if claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims); ok && claims != nil {
		req.OrgID = claims.OrganizationID
	}

	ticket, err := clarify.NewTicketRequest(req.Title, req.Description, req.IssueType, req.Priority, req.OrgID)
	if err != nil {
		writeClarifyError(w, err)
		return
	}

	result, err := h.runner.Run(r.Context(), ticket)
	if err != nil {
		writeClarifyError(w, err)
		return
	}

	errors.WriteJSON(w, http.StatusOK, result)
}

// writeClarifyError maps pipeline errors onto the HTTP error envelope.
func writeClarifyError(w http.ResponseWriter, err error) {
	var denied *pipeline.DeniedError
	stderrors.As(err, &denied)

	switch {
	case stderrors.Is(err, clarify.ErrInvalidTicket):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Ticket title is required", nil)
	case stderrors.Is(err, quota.ErrBurstLimitExceeded):
		if denied != nil {
			if d := denied.Decision.RetryAfter; d > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
			}
		}
		errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded. Please wait a moment.", nil)
	case stderrors.Is(err, quota.ErrMonthlyQuotaExceeded):
		details := map[string]interface{}{}
		if denied != nil && denied.Decision.Organization != nil {
			org := denied.Decision.Organization
			details["limit"] = org.ClarificationsLimit
			details["plan"] = org.Plan
		}
		errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeQuotaExceeded, "Monthly limit reached. Upgrade to Pro for unlimited clarifications.", details)
	case stderrors.Is(err, clarify.ErrGenerationUnavailable):
		errors.WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeGenerationUnavailable, "Generation service is not configured", nil)
	case stderrors.Is(err, clarify.ErrMalformedResponse):
		errors.WriteError(w, http.StatusBadGateway, errors.ErrCodeMalformedResponse, "Failed to parse generated response", nil)
	case stderrors.Is(err, clarify.ErrGenerationFailed):
		errors.WriteError(w, http.StatusBadGateway, errors.ErrCodeGenerationFailed, "Generation request failed", nil)
	default:
		log.Error().Err(err).Msg("unexpected clarification error")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal server error", nil)
	}
}
