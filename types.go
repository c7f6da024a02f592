package authcore

import (
	"context"
	"time"
)

// UserRecord is the credential row returned by a [CredentialStore].
//
// PasswordHash is the base64 Argon2id derivation of the password mixed with
// Salt (see password.Verifier). The core never writes records.
type UserRecord struct {
	ID           string
	Username     string
	PasswordHash string
	Salt         string
}

// Identity is the authenticated user returned to callers.
type Identity struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
}

// LoginRequest carries one interactive login attempt. Password is never
// persisted or logged.
type LoginRequest struct {
	Username string
	Password string
	Remember bool
}

// LoginResult is returned by [Engine.Login] and [Engine.Reauth].
//
// When Remembered is true, Token is also the remember token: presenting it to
// [Engine.Reauth] within [RememberConfig.TTL] issues a fresh session. After a
// Reauth with Remembered true, the previous remember token is no longer valid
// and the caller must keep the new Token instead.
type LoginResult struct {
	Identity
	Token      string
	Remembered bool
}

// CredentialStore looks up credential records. A missing record is reported
// as found=false with a nil error; errors are reserved for backend failures.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (UserRecord, bool, error)
	FindByID(ctx context.Context, id string) (UserRecord, bool, error)
}

// SessionIssuer creates and checks primary session tokens.
//
// Issue returns the token it created. IsActive reports false with a nil error
// for invalid, revoked or expired tokens.
type SessionIssuer interface {
	Issue(ctx context.Context, userID string) (string, error)
	IsActive(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
	UserID(ctx context.Context, token string) (string, error)
}

// RememberStore maps remember tokens to user ids with a TTL. Get and Rotate
// must report a missing or expired entry with an error matching
// [ErrTokenNotFound]; any other error is treated as a backend failure.
//
// Rotate moves an entry to a new token keeping its remaining TTL.
type RememberStore interface {
	Set(ctx context.Context, token, userID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Rotate(ctx context.Context, from, to string) error
	Exists(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
}
