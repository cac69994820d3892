package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Context key types (unexported to prevent collisions).
type requestIDKey struct{}

var ctxKeyRequestID = requestIDKey{}

// requestIDFromContext retrieves the request ID from the request context.
// Returns empty string and false if not found.
func requestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyRequestID).(string)
	return id, ok
}

// loggingWriter wraps http.ResponseWriter to capture metrics.
type loggingWriter struct {
	w            http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lw *loggingWriter) Header() http.Header {
	return lw.w.Header()
}

func (lw *loggingWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.w.WriteHeader(code)
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if lw.statusCode == 0 {
		lw.statusCode = http.StatusOK
	}
	n, err := lw.w.Write(b)
	lw.bytesWritten += int64(n)
	return n, err
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (lw *loggingWriter) Unwrap() http.ResponseWriter {
	return lw.w
}

// recoveryMiddleware recovers from panics to prevent server crashes.
func recoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapper := &loggingWriter{w: w}

			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"headers_sent", wrapper.statusCode != 0,
					)

					if wrapper.statusCode == 0 {
						writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", logger)
					} else {
						logger.Warn("cannot send error response, headers already sent",
							"path", r.URL.Path,
							"status", wrapper.statusCode,
						)
					}
				}
			}()
			next.ServeHTTP(wrapper, r)
		})
	}
}

// requestIDMiddleware attaches a fresh request ID to each request's
// context and echoes it in the X-Request-ID response header.
func requestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set("X-Request-ID", id)
			ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loggingMiddleware logs request details including latency, status, and
// response size. Reuses an existing *loggingWriter from outer middleware
// to avoid double-wrapping the ResponseWriter.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapper, ok := w.(*loggingWriter)
			if !ok {
				wrapper = &loggingWriter{w: w}
			}

			next.ServeHTTP(wrapper, r)

			status := wrapper.statusCode
			if status == 0 {
				status = http.StatusOK
			}

			requestID, _ := requestIDFromContext(r.Context())
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", wrapper.bytesWritten,
				"duration", time.Since(start),
				"ip", r.RemoteAddr,
				"request_id", requestID,
			)
		})
	}
}

// corsMiddleware handles CORS preflight and response headers.
// allowedOrigins is a list of origins permitted to access the API.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if _, ok := originSet[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
