package authcore

import "errors"

var (
	// ErrUserNotExist is returned when no usable credential record exists for
	// the requested username or user id.
	ErrUserNotExist = errors.New("user does not exist")
	// ErrIncorrectPassword is returned when the user exists but the password
	// does not match the stored hash.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrTokenNotFound is returned when a remember token is empty, unknown, or
	// expired.
	ErrTokenNotFound = errors.New("remember token not found")
	// ErrStoreUnavailable wraps failures of the credential store, the session
	// issuer, or the remember store. The original cause is kept in the message.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrSessionNotFound is returned by [Engine.Logout] for tokens that do not
	// parse as session tokens.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEngineNotReady is returned when an Engine was not produced by
	// [Builder.Build] or is missing a collaborator.
	ErrEngineNotReady = errors.New("engine not initialized")
)
