package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/eventsphere/internal/api/apierr"
	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/services/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// RequireAdmin rejects requests without a valid admin session cookie.
// The session is checked against the store on every request.
func RequireAdmin(authService *auth.Service, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				apierr.WriteError(w, r, logger, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.AuthenticateCookie(r.Context(), cookie.Value)
			if err != nil {
				apierr.WriteError(w, r, logger, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the admin session from the request context
func GetSession(ctx context.Context) *model.AdminSession {
	session, _ := ctx.Value(sessionContextKey).(*model.AdminSession)
	return session
}
