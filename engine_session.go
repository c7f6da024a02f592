package authcore

import (
	"context"
	"time"
)

// IsActive reports whether token names a live session. Invalid, revoked and
// expired tokens are (false, nil); only backend failures return an error.
//
//	Performance: 1 Redis GET.
func (e *Engine) IsActive(ctx context.Context, token string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	if token == "" {
		return false, nil
	}

	ok, err := e.sessions.IsActive(ctx, token)
	if err != nil {
		return false, storeUnavailable("check session", err)
	}
	return ok, nil
}

// SessionUser returns the user id bound to a live session token, or
// [ErrSessionNotFound].
func (e *Engine) SessionUser(ctx context.Context, token string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if token == "" {
		return "", ErrSessionNotFound
	}

	userID, err := e.sessions.UserID(ctx, token)
	if err != nil {
		if isSessionNotFound(err) {
			return "", ErrSessionNotFound
		}
		return "", storeUnavailable("resolve session", err)
	}
	return userID, nil
}

// Ping checks the session backend when the issuer supports it. Issuers
// without a Ping method are assumed reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	p, ok := e.sessions.(interface {
		Ping(context.Context) (time.Duration, error)
	})
	if !ok {
		return nil
	}
	latency, err := p.Ping(ctx)
	if err != nil {
		return storeUnavailable("ping", err)
	}
	e.logger.DebugContext(ctx, "session backend reachable", "latency", latency)
	return nil
}

// Logout deletes the remember entry keyed by token and revokes the session.
//
// The remember entry is removed first and on a best-effort basis: its
// failure is logged, not returned. A token that does not parse as a session
// returns [ErrSessionNotFound] after that cleanup; revoking an already
// expired session succeeds.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if token == "" {
		return ErrSessionNotFound
	}

	if err := e.remember.Delete(ctx, token); err != nil {
		e.warn(ctx, "remember entry delete failed on logout", "error", err)
	}

	if err := e.sessions.Revoke(ctx, token); err != nil {
		if isSessionNotFound(err) {
			return ErrSessionNotFound
		}
		return storeUnavailable("revoke session", err)
	}

	e.metricInc(MetricSessionRevoked)
	e.metricInc(MetricLogout)
	return nil
}
