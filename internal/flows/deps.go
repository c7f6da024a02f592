package flows

import (
	"context"
	"fmt"
)

// UserRecord is the flow-local view of a credential-store record.
type UserRecord struct {
	UserID       string
	Username     string
	PasswordHash string
	Salt         string
}

// usable reports whether a found record is complete enough to authenticate.
// A record with an id but no username is treated as absent.
func (r UserRecord) usable() bool {
	return r.UserID != "" && r.Username != ""
}

// Result is the flow-local outcome of a successful login or re-auth.
type Result struct {
	UserID     string
	Username   string
	Token      string
	Remembered bool
}

// Metrics carries metric IDs needed by the flows.
type Metrics struct {
	LoginSuccess           int
	LoginUserNotExist      int
	LoginIncorrectPassword int
	SessionCreated         int
	RememberIssued         int
	RememberWriteFailed    int
	ReauthSuccess          int
	ReauthFailure          int
}

// Errors carries host-level sentinel errors returned by the flows.
type Errors struct {
	EngineNotReady    error
	UserNotExist      error
	IncorrectPassword error
	TokenNotFound     error
	StoreUnavailable  error
}

func storeUnavailable(errs Errors, op string, err error) error {
	return fmt.Errorf("%w: %s: %v", errs.StoreUnavailable, op, err)
}

func noopMetric(int) {}

func noopWarn(context.Context, string, ...any) {}
