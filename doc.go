// Package authcore authenticates users against a credential store, issues
// Redis-backed session tokens, and supports "remember me" persistent login
// through a TTL key-value mapping from token to user id.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. No Engine method starts a background goroutine.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config], the
// collaborator interfaces ([CredentialStore], [SessionIssuer], [RememberStore])
// and value types. Flow orchestration and the Redis remember store live under
// internal/ and are never exported.
//
// # Errors
//
// Every operation reports failure through the sentinels in errors.go, checked
// with errors.Is. Backend failures of any collaborator surface as
// [ErrStoreUnavailable] with the cause kept in the message.
//
// # Performance contract
//
// Login costs one credential lookup, one Argon2id derivation and one Redis
// write (two with remember-me). Reauth costs one Redis read, one credential
// lookup and one Redis write. IsActive costs one Redis read.
package authcore
