package server

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aireviewmate/aireviewmate/internal/loggy"
)

// corsMiddleware allows browser calls from the configured client origin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ClientURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogMiddleware assigns each request a ULID and logs its outcome.
func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := loggy.NewRequestID()
		ctx := loggy.WithRequestID(r.Context(), requestID)
		ctx = loggy.WithLogger(ctx, s.logger.With("request_id", requestID))

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r.WithContext(ctx))

		s.logger.Info("Request handled",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client", clientID(r))
	})
}

// rateLimited wraps LLM-backed handlers with the per-client sliding window.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := s.limiter.Admit(clientID(r))
		if !result.Allowed {
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Too many requests (%d/%d). Please wait a moment before trying again.",
					result.Count, result.Max))
			return
		}

		next(w, r)
	}
}

// clientID resolves the client identity: the proxy-forwarded address first,
// then the direct connection address, then a shared "unknown" bucket.
func clientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// The first entry is the originating client
		if first, _, found := strings.Cut(forwarded, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
