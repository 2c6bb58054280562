package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "clarifier/internal/api/context"
	"clarifier/internal/api/handlers"
	"clarifier/internal/api/middleware"
	"clarifier/internal/pkg/errors"
	"clarifier/internal/platform/config"
)

type Dependencies struct {
	RootHandler      *handlers.RootHandler
	HealthHandler    *handlers.HealthHandler
	MetricsHandler   *handlers.MetricsHandler
	ClarifyHandler   *handlers.ClarifyHandler
	UsageHandler     *handlers.UsageHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	AuthMiddleware   *middleware.AuthMiddleware
	CORS             config.CORSConfig
}

func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()

	// Service info
	router.GET("/", chain(deps.RootHandler.Info, middleware.Logging("root")))
	router.GET("/health", chain(deps.HealthHandler.Check, middleware.Logging("health")))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	authMid := deps.AuthMiddleware

	// Clarification
	router.POST("/clarify",
		chain(deps.ClarifyHandler.Clarify, middleware.Logging("clarify"), authMid.Handle))

	// Usage and analytics
	router.GET("/usage/:org_id",
		chain(deps.UsageHandler.Get, middleware.Logging("usage"), authMid.Handle))
	router.GET("/analytics/:org_id",
		chain(deps.AnalyticsHandler.GetOverview, middleware.Logging("analytics"), authMid.Handle))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})

	return middleware.CORS(deps.CORS)(router)
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
