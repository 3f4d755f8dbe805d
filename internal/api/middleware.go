package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/crm-sheets/internal/common"
	"github.com/go-chi/chi/v5/middleware"
)

// Logger attaches a request-scoped logger to the context and logs each completed request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			reqLogger := logger.With(
				"method", req.Method,
				"path", req.URL.Path,
				"remote_ip", req.RemoteAddr,
				"request_id", middleware.GetReqID(req.Context()),
			)

			ctx := common.WithLogger(req.Context(), reqLogger)
			req = req.WithContext(ctx)

			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, req)

			reqLogger.Info("request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}
