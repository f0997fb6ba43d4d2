package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"predictbattle/internal/transport/rest/apierr"
)

// Recovery turns panics into a JSON 500
func Recovery(logger *slog.Logger, out *apierr.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
						slog.String("request_id", GetRequestID(r.Context())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					out.Internal(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
