package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/alanhabib/elmify-backend-sub000/core/auth"
	"github.com/alanhabib/elmify-backend-sub000/core/manifest"
	"github.com/alanhabib/elmify-backend-sub000/logger"
)

// writeJSON serializes a response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write response", logger.ErrorField(err))
	}
}

// callerIdentity derives the cache identity segment for a request. A valid
// bearer token yields the user id; anything else falls back to the public
// sentinel so anonymous callers share one manifest per playlist.
func callerIdentity(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return manifest.PublicCaller
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return manifest.PublicCaller
	}

	claims, err := auth.ParseToken(parts[1])
	if err != nil {
		return manifest.PublicCaller
	}
	return claims.UserID
}

// corsMiddleware allows browser playback clients on other origins, exposing
// the range headers players need.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range, X-Admin-Token")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags every request with an id for log correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger.Debug("request",
			logger.String("requestId", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path))

		next.ServeHTTP(w, r)
	})
}
