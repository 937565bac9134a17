package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/BlueStarAcademy/sudampvp/internal/api/apierr"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/services/auth"
)

type contextKey string

const sessionContextKey contextKey = "auth_session"

// Auth creates bearer token authentication middleware
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateToken(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the token from the Authorization header, falling back
// to the access_token query parameter for EventSource and WebSocket clients
// that cannot set headers, then to the session cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token := r.URL.Query().Get("access_token"); token != "" {
		return token
	}

	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetSession returns the verified identity from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetPlayerID returns the authenticated player id or panics
func MustGetPlayerID(ctx context.Context) model.PlayerID {
	session := GetSession(ctx)
	if session == nil {
		panic("no player in context - auth middleware not applied?")
	}
	return session.PlayerID
}
