package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/heartmarshall/presence-dashboard/pkg/ctxutil"
)

const panicBody = `{"error":"internal server error","class":"unknown"}` + "\n"

// Recovery turns a handler panic into a 500 with the same JSON error shape
// the API uses elsewhere. http.ErrAbortHandler is re-raised so the server
// can drop the connection.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				attrs := []any{
					slog.Any("error", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
				}
				if id, ok := ctxutil.AccountIDFromCtx(r.Context()); ok {
					attrs = append(attrs, slog.String("account_id", id.String()))
				}
				logger.ErrorContext(r.Context(), "panic recovered", attrs...)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(panicBody))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
