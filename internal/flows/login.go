package flows

import (
	"context"
	"time"
)

// LoginDeps captures login dependencies.
type LoginDeps struct {
	RememberTTL      time.Duration
	RememberFailOpen bool

	FindByUsername func(context.Context, string) (UserRecord, bool, error)
	VerifyPassword func(candidate, salt, storedHash string) bool
	IssueSession   func(context.Context, string) (string, error)
	RevokeSession  func(context.Context, string) error
	SaveRemember   func(ctx context.Context, token, userID string, ttl time.Duration) error

	MetricInc func(int)
	Warn      func(context.Context, string, ...any)

	Metrics Metrics
	Errors  Errors
}

// RunLogin verifies username/password and issues a session. When remember is
// set, the issued token itself becomes the remember key, so the remember entry
// and the returned session token are identical by construction.
func RunLogin(ctx context.Context, username, password string, remember bool, deps LoginDeps) (*Result, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.Warn == nil {
		deps.Warn = noopWarn
	}
	if deps.FindByUsername == nil ||
		deps.VerifyPassword == nil ||
		deps.IssueSession == nil ||
		(remember && deps.SaveRemember == nil) {
		return nil, deps.Errors.EngineNotReady
	}

	if username == "" {
		deps.MetricInc(deps.Metrics.LoginUserNotExist)
		return nil, deps.Errors.UserNotExist
	}

	user, found, err := deps.FindByUsername(ctx, username)
	if err != nil {
		return nil, storeUnavailable(deps.Errors, "find user by username", err)
	}
	if !found || !user.usable() {
		deps.MetricInc(deps.Metrics.LoginUserNotExist)
		return nil, deps.Errors.UserNotExist
	}

	if !deps.VerifyPassword(password, user.Salt, user.PasswordHash) {
		deps.MetricInc(deps.Metrics.LoginIncorrectPassword)
		return nil, deps.Errors.IncorrectPassword
	}

	token, err := deps.IssueSession(ctx, user.UserID)
	if err != nil {
		return nil, storeUnavailable(deps.Errors, "issue session", err)
	}
	deps.MetricInc(deps.Metrics.SessionCreated)

	result := &Result{
		UserID:   user.UserID,
		Username: user.Username,
		Token:    token,
	}

	if remember {
		if err := deps.SaveRemember(ctx, token, user.UserID, deps.RememberTTL); err != nil {
			deps.MetricInc(deps.Metrics.RememberWriteFailed)
			if !deps.RememberFailOpen {
				if deps.RevokeSession != nil {
					if revokeErr := deps.RevokeSession(ctx, token); revokeErr != nil {
						deps.Warn(ctx, "session revoke failed after remember write failure",
							"user_id", user.UserID, "error", revokeErr)
					}
				}
				return nil, storeUnavailable(deps.Errors, "save remember entry", err)
			}
			deps.Warn(ctx, "remember entry write failed; continuing without remember-me",
				"user_id", user.UserID, "error", err)
		} else {
			result.Remembered = true
			deps.MetricInc(deps.Metrics.RememberIssued)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	return result, nil
}
