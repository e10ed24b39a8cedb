package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"deposit-backend/internal/timeutil"
)

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// APILogging logs one line per API request. Slow requests (>1s) get flagged
// so report endpoints that need an index show up in the logs.
func APILogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := timeutil.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		slow := ""
		if duration > time.Second {
			slow = " SLOW"
		}

		log.Printf("[API] %s %s %d %dB %.1fms %s%s",
			r.Method,
			sanitizePath(r.URL.Path),
			wrapped.statusCode,
			wrapped.bytesWritten,
			float64(duration.Microseconds())/1000.0,
			getClientIP(r),
			slow,
		)
	})
}

// shouldSkipLogging returns true for paths that shouldn't be logged
func shouldSkipLogging(path string) bool {
	skipPaths := []string{
		"/health",
		"/metrics",
		"/favicon.ico",
		"/robots.txt",
	}

	for _, skip := range skipPaths {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}

	return false
}

// sanitizePath removes sensitive data from paths
func sanitizePath(path string) string {
	// Remove query parameters that might contain sensitive data
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	// Truncate very long paths
	if len(path) > 500 {
		path = path[:500]
	}

	return path
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for proxies/load balancers)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// Take the first IP in the list
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}
