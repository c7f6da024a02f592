// Package session issues and checks the server-side sessions behind session
// tokens.
//
// # Layout
//
// Each session is a compact binary record stored in Redis at
// "<prefix>:<sessionID>" with the session TTL. The token returned to the caller
// is a signed JWT (see package jwt) that names the user id and the session id.
// A token is active only while its signature and expiry are valid AND its
// record still exists with a matching user id, so revocation is a single DEL.
//
// # Architecture boundaries
//
// This package owns the [Issuer] (Redis operations) and the [Session] model. It
// does NOT look up users or verify passwords; callers must only issue sessions
// for user ids they have already confirmed.
//
// # What this package must NOT do
//
//   - Import authcore (no upward imports).
//   - Store plaintext tokens in Redis.
package session
