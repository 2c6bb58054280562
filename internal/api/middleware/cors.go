package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"clarifier/internal/platform/config"
)

// CORS answers preflight requests and decorates responses for allowed origins.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: cfg.AllowedMethods,
		AllowedHeaders: cfg.AllowedHeaders,
		MaxAge:         cfg.MaxAge,
	}).Handler
}
