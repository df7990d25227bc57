package logger

import (
	"log/slog"
	"net/http"
	"time"
)

// recorder remembers the first status written and the body size.
type recorder struct {
	http.ResponseWriter
	status  int
	written int
	headed  bool
}

func (rw *recorder) WriteHeader(code int) {
	if !rw.headed {
		rw.status, rw.headed = code, true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if !rw.headed {
		rw.status, rw.headed = http.StatusOK, true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *recorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// AccessMiddleware logs one debug "http_access" line per request and reports it to observe
// (may be nil). Request bodies are never read.
func AccessMiddleware(l *slog.Logger, observe func(path string, status int, d time.Duration)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &recorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rw, r)
			elapsed := time.Since(start)
			if l.Enabled(r.Context(), slog.LevelDebug) {
				l.LogAttrs(r.Context(), slog.LevelDebug, "http_access",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", rw.status),
					slog.Int("bytes", rw.written),
					slog.Int64("duration_ms", elapsed.Milliseconds()),
					slog.String("ip", r.RemoteAddr),
				)
			}
			if observe != nil {
				observe(r.URL.Path, rw.status, elapsed)
			}
		})
	}
}
