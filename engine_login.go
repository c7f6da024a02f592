package authcore

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/internal/flows"
)

// Login verifies req against the credential store and issues a session.
//
// An unknown username (or a record without a username) returns
// [ErrUserNotExist]; a wrong password returns [ErrIncorrectPassword] and
// issues nothing. With req.Remember set, the returned token is also stored
// as a remember entry for [RememberConfig.TTL]; if that write fails the
// outcome follows [RememberConfig.FailOpen].
//
//	Performance: 1 credential lookup, 1 Argon2id derivation, 1-2 Redis writes.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	res, err := flows.RunLogin(ctx, req.Username, req.Password, req.Remember, e.loginDeps())
	e.metricObserve(MetricLoginLatency, time.Since(start))
	if err != nil {
		e.debug(ctx, "login rejected", "username", req.Username, "error", err)
		return nil, err
	}

	e.debug(ctx, "login succeeded", "user_id", res.UserID, "remembered", res.Remembered)
	return toLoginResult(res), nil
}

// Reauth exchanges a remember token for a fresh session without a password
// check. A missing or expired entry returns [ErrTokenNotFound]; a user that
// no longer exists returns [ErrUserNotExist].
//
// The remember entry moves to the new session token and keeps its original
// expiry, so the old remember token stops working and [Engine.Logout] with
// the new token removes it. If the move fails on a backend error the outcome
// follows [RememberConfig.FailOpen]: fail-open returns the session with
// Remembered=false and leaves the old entry valid.
//
//	Performance: 1 Redis GET, 1 credential lookup, 1 Redis SET, 1 Redis EVALSHA.
func (e *Engine) Reauth(ctx context.Context, rememberToken string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res, err := flows.RunReauth(ctx, rememberToken, e.reauthDeps())
	if err != nil {
		e.debug(ctx, "reauth rejected", "error", err)
		return nil, err
	}

	e.debug(ctx, "reauth succeeded", "user_id", res.UserID)
	return toLoginResult(res), nil
}

// RememberExists reports whether a live remember entry exists for token.
// An empty token is (false, nil).
func (e *Engine) RememberExists(ctx context.Context, token string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	if token == "" {
		return false, nil
	}

	ok, err := e.remember.Exists(ctx, token)
	if err != nil {
		return false, storeUnavailable("check remember entry", err)
	}
	return ok, nil
}

func (e *Engine) loginDeps() flows.LoginDeps {
	return flows.LoginDeps{
		RememberTTL:      e.config.Remember.TTL,
		RememberFailOpen: e.config.Remember.FailOpen,
		FindByUsername:   e.findByUsername,
		VerifyPassword:   e.verifier.Verify,
		IssueSession:     e.sessions.Issue,
		RevokeSession:    e.sessions.Revoke,
		SaveRemember:     e.remember.Set,
		MetricInc:        e.flowMetricInc,
		Warn:             e.warn,
		Metrics:          e.flowMetrics(),
		Errors:           flowErrors(),
	}
}

func (e *Engine) reauthDeps() flows.ReauthDeps {
	return flows.ReauthDeps{
		RememberFailOpen:   e.config.Remember.FailOpen,
		GetRemember:        e.remember.Get,
		RotateRemember:     e.remember.Rotate,
		IsRememberNotFound: isRememberNotFound,
		FindByID:           e.findByID,
		IssueSession:       e.sessions.Issue,
		RevokeSession:      e.sessions.Revoke,
		MetricInc:          e.flowMetricInc,
		Warn:               e.warn,
		Metrics:            e.flowMetrics(),
		Errors:             flowErrors(),
	}
}
