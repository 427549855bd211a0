package server

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/lithos/internal/metrics"
)

// chain applies request logging and panic recovery around a handler. A
// dev server must survive any single bad request.
func chain(rec metrics.Recorder, next http.Handler) http.Handler {
	return loggingMiddleware(rec, panicRecoveryMiddleware(next))
}

// loggingMiddleware logs method, path, status and duration per request.
func loggingMiddleware(rec metrics.Recorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		rec.IncHTTPRequest(wrapped.statusCode)
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			slog.Duration("duration", time.Since(start)))
	})
}

// panicRecoveryMiddleware turns handler panics into 500 responses.
func panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("HTTP handler panic",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	wrote      bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wrote {
		return
	}
	rw.wrote = true
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wrote = true
	return rw.ResponseWriter.Write(b)
}
