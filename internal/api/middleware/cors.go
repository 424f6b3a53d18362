package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSOptions configures cross-origin access for browser players.
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS allows read-only cross-origin access and exposes the headers media
// players need to issue follow-up range requests.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Range", "Content-Type", "If-None-Match", "If-Modified-Since", RequestIDHeader},
		ExposedHeaders: []string{
			"Content-Range",
			"Accept-Ranges",
			"Content-Length",
			"ETag",
			RequestIDHeader,
		},
		MaxAge: opts.MaxAge,
	})
}
