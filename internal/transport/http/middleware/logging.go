package httpmw

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/realReloadTime/web-development/pkg/logger"

	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

// LogMiddleware logs one line per request: method, path, status, duration,
// plus trace ids when a span is in the context.
func LogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middlewareChi.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		attrs := append(logger.AttrsFromCtx(r.Context()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		)
		logger.L().LogAttrs(r.Context(), slog.LevelInfo, "http request", attrs...)
	})
}
