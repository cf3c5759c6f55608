package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	userdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/user"
	"github.com/Alpayozd/intern-betting-app-sub000/pkg/logger"
)

type contextKey int

const userKey contextKey = iota

// User is the authenticated caller attached to the request context.
type User struct {
	ID    string
	Name  string
	Email string
}

// Authenticator resolves a bearer token to an account. Implemented by the
// user service.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*userdomain.User, error)
}

type TokenAuth struct {
	users Authenticator
	log   logger.Logger
}

func NewTokenAuth(users Authenticator, log logger.Logger) *TokenAuth {
	return &TokenAuth{users: users, log: log}
}

func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		account, err := a.users.Authenticate(r.Context(), token)
		if err != nil {
			if !errors.Is(err, userdomain.ErrTokenInvalid) {
				a.log.InternalError("auth: token lookup failed", err)
			}
			unauthorized(w)
			return
		}

		ctx := WithUser(r.Context(), User{
			ID:    account.ID,
			Name:  account.Name,
			Email: account.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    "invalid_token",
			"message": "invalid token",
		},
	})
}
