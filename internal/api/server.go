package api

import (
	"net/http"

	"clarifier/internal/api/handlers"
	"clarifier/internal/api/middleware"
	"clarifier/internal/app"
)

// NewHandler builds the HTTP surface over a wired App.
func NewHandler(a *app.App) http.Handler {
	var analyticsSvc handlers.AnalyticsService
	if a.Analytics != nil {
		analyticsSvc = a.Analytics
	}

	cfg := a.Config
	return NewRouter(&Dependencies{
		RootHandler:      handlers.NewRootHandler(app.Version, cfg.Features),
		HealthHandler:    handlers.NewHealthHandler(a),
		MetricsHandler:   handlers.NewMetricsHandler(),
		ClarifyHandler:   handlers.NewClarifyHandler(a.Pipeline),
		UsageHandler:     handlers.NewUsageHandler(a.Usage),
		AnalyticsHandler: handlers.NewAnalyticsHandler(analyticsSvc, cfg.Features.Analytics),
		AuthMiddleware:   middleware.NewAuthMiddleware(a.Tokens),
		CORS:             cfg.CORS,
	})
}
