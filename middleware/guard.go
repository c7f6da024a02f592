package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
)

// SessionResolver resolves a session token to its user id. [authcore.Engine]
// satisfies it.
type SessionResolver interface {
	SessionUser(ctx context.Context, token string) (string, error)
}

// Principal is what [Guard] stores in the request context.
type Principal struct {
	UserID string
	Token  string
}

type principalContextKey struct{}

// PrincipalFromContext returns the principal stored by [Guard].
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// ErrorWriter renders a rejected request. err is [authcore.ErrSessionNotFound]
// for a missing or unusable token, or the resolver's error otherwise.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Guard rejects requests that do not carry a live session token in the
// Authorization header. Missing, invalid or revoked tokens get 401; backend
// failures get 503. Responses are plain text; use [GuardWithErrors] to render
// them differently.
func Guard(resolver SessionResolver) func(http.Handler) http.Handler {
	return GuardWithErrors(resolver, nil)
}

// GuardWithErrors is [Guard] with rejections rendered by onError. A nil
// onError writes plain text.
func GuardWithErrors(resolver SessionResolver, onError ErrorWriter) func(http.Handler) http.Handler {
	if onError == nil {
		onError = writePlainError
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				onError(w, r, authcore.ErrSessionNotFound)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				onError(w, r, authcore.ErrSessionNotFound)
				return
			}

			userID, err := resolver.SessionUser(r.Context(), token)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{UserID: userID, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writePlainError(w http.ResponseWriter, _ *http.Request, err error) {
	if errors.Is(err, authcore.ErrStoreUnavailable) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
