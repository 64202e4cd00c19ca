package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/sugicreations/sugi-backend/pkg/config"
)

// CORS returns middleware that applies the configured allowed origin policy.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CartTokenHeader, "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{CartTokenHeader, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

// CartTokenHeader carries the guest cart token between storefront and API.
const CartTokenHeader = "X-Cart-Token"
