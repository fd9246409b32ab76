package middleware

import (
	"context"
	"net/http"
	"strings"

	"atmcore/internal/models"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionValidator is satisfied by the auth service: resolve the bearer token
// to a live session and slide its expiry.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (models.Session, bool, error)
}

func SessionFromContext(ctx context.Context) (models.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(models.Session)
	return sess, ok
}

func Session(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			sess, valid, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				http.Error(w, "session lookup failed", http.StatusInternalServerError)
				return
			}
			if !valid {
				http.Error(w, "session expired", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
