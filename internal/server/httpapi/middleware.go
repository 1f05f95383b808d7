package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
)

// RequestIDHeader is honoured on requests and always set on responses.
const RequestIDHeader = "X-Request-Id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// loggingMiddleware logs method, path, status and duration of every request.
func loggingMiddleware(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			args := []any{"method", r.Method, "path", r.URL.Path, "status", rw.statusCode, "duration", time.Since(start)}
			if rw.statusCode == http.StatusForbidden {
				logger.Warn(r.Context(), "http", args...)
				return
			}
			logger.Info(r.Context(), "http", args...)
		})
	}
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
