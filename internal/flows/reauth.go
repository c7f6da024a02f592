package flows

import "context"

// ReauthDeps captures silent re-auth dependencies.
type ReauthDeps struct {
	RememberFailOpen bool

	GetRemember        func(context.Context, string) (string, error)
	RotateRemember     func(ctx context.Context, from, to string) error
	IsRememberNotFound func(error) bool
	FindByID           func(context.Context, string) (UserRecord, bool, error)
	IssueSession       func(context.Context, string) (string, error)
	RevokeSession      func(context.Context, string) error

	MetricInc func(int)
	Warn      func(context.Context, string, ...any)

	Metrics Metrics
	Errors  Errors
}

// RunReauth resolves a remember token to its user and issues a fresh session
// without a password check. A missing or expired entry is TokenNotFound; the
// caller decides whether to fall back to an interactive login.
//
// On success the remember entry moves from rememberToken to the new session
// token with its remaining TTL, so the entry key always equals the newest
// session token. If the move fails with the entry gone, the new session is
// revoked and TokenNotFound returned. Other move failures follow
// RememberFailOpen the same way a login's remember write does.
func RunReauth(ctx context.Context, rememberToken string, deps ReauthDeps) (*Result, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.Warn == nil {
		deps.Warn = noopWarn
	}
	if deps.GetRemember == nil ||
		deps.RotateRemember == nil ||
		deps.IsRememberNotFound == nil ||
		deps.FindByID == nil ||
		deps.IssueSession == nil {
		return nil, deps.Errors.EngineNotReady
	}

	if rememberToken == "" {
		deps.MetricInc(deps.Metrics.ReauthFailure)
		return nil, deps.Errors.TokenNotFound
	}

	userID, err := deps.GetRemember(ctx, rememberToken)
	if err != nil {
		deps.MetricInc(deps.Metrics.ReauthFailure)
		if deps.IsRememberNotFound(err) {
			return nil, deps.Errors.TokenNotFound
		}
		return nil, storeUnavailable(deps.Errors, "get remember entry", err)
	}

	user, found, err := deps.FindByID(ctx, userID)
	if err != nil {
		deps.MetricInc(deps.Metrics.ReauthFailure)
		return nil, storeUnavailable(deps.Errors, "find user by id", err)
	}
	if !found || !user.usable() {
		deps.MetricInc(deps.Metrics.ReauthFailure)
		return nil, deps.Errors.UserNotExist
	}

	token, err := deps.IssueSession(ctx, user.UserID)
	if err != nil {
		deps.MetricInc(deps.Metrics.ReauthFailure)
		return nil, storeUnavailable(deps.Errors, "issue session", err)
	}
	deps.MetricInc(deps.Metrics.SessionCreated)

	result := &Result{
		UserID:   user.UserID,
		Username: user.Username,
		Token:    token,
	}

	if err := deps.RotateRemember(ctx, rememberToken, token); err != nil {
		gone := deps.IsRememberNotFound(err)
		if gone || !deps.RememberFailOpen {
			if deps.RevokeSession != nil {
				if revokeErr := deps.RevokeSession(ctx, token); revokeErr != nil {
					deps.Warn(ctx, "session revoke failed after remember rotation failure",
						"user_id", user.UserID, "error", revokeErr)
				}
			}
			deps.MetricInc(deps.Metrics.ReauthFailure)
			if gone {
				return nil, deps.Errors.TokenNotFound
			}
			return nil, storeUnavailable(deps.Errors, "rotate remember entry", err)
		}
		deps.MetricInc(deps.Metrics.RememberWriteFailed)
		deps.Warn(ctx, "remember entry rotation failed; previous remember token stays valid",
			"user_id", user.UserID, "error", err)
	} else {
		result.Remembered = true
	}

	deps.MetricInc(deps.Metrics.ReauthSuccess)
	return result, nil
}
