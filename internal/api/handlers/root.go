package handlers

import (
	"net/http"

	"clarifier/internal/pkg/errors"
	"clarifier/internal/platform/config"
)

type RootHandler struct {
	version  string
	features config.FeaturesConfig
}

func NewRootHandler(version string, features config.FeaturesConfig) *RootHandler {
	return &RootHandler{version: version, features: features}
}

func (h *RootHandler) Info(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Ticket Clarifier API",
		"version": h.version,
		"status":  "operational",
		"features": map[string]bool{
			"rag":          h.features.RAG,
			"rateLimiting": h.features.RateLimiting,
			"analytics":    h.features.Analytics,
		},
	})
}
