// Package middleware provides request logging middleware.
package middleware

import (
	"net/http"
	"time"

	"github.com/crmsuite/calendard/internal/util"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Logging returns middleware that logs HTTP requests.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		var apiKeyPrefix string
		if authKey := APIKeyFromContext(r.Context()); authKey != nil {
			apiKeyPrefix = authKey.KeyPrefix
		}

		logFields := map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": duration.Milliseconds(),
			"size":        rw.size,
			"client_ip":   clientIP,
			"user_agent":  util.TruncateString(r.UserAgent(), 256),
		}

		if apiKeyPrefix != "" {
			logFields["api_key"] = apiKeyPrefix
		}

		if r.URL.RawQuery != "" {
			logFields["query"] = r.URL.RawQuery
		}

		logger := util.GetDefaultLogger().WithFields(logFields)

		switch {
		case rw.statusCode >= 500:
			logger.Error("HTTP request")
		case rw.statusCode >= 400:
			logger.Warn("HTTP request")
		default:
			logger.Info("HTTP request")
		}
	})
}
