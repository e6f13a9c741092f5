package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RequestLogger attaches logger to every request, tags it with a request id
// and writes one access log line per response.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	withLogger := hlog.NewHandler(logger)
	withID := hlog.RequestIDHandler("req.id", "X-Request-Id")
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("http.method", r.Method).
			Str("http.path", r.URL.Path).
			Int("http.status", status).
			Int("http.size", size).
			Dur("http.duration", duration).
			Msg("Request handled")
	})

	return func(next http.Handler) http.Handler {
		return withLogger(withID(access(next)))
	}
}
