package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware logs one line per request after the handler returns. Client
// errors log at warn and server errors at error.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = Component(logger, "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "request completed",
				FieldRequestID, middleware.GetReqID(r.Context()),
				FieldMethod, r.Method,
				FieldPath, r.URL.Path,
				FieldStatus, status,
				FieldBytes, ww.BytesWritten(),
				FieldDuration, time.Since(start).Milliseconds(),
				FieldRemote, r.RemoteAddr,
			)
		})
	}
}
