// Package jwt signs and parses the session tokens handed to clients.
//
// A session token is a compact JWT carrying the user id (uid) and the
// server-side session id (sid). The token is opaque to callers; liveness is
// decided by the session layer, which checks both the signature and the
// server-side session record.
package jwt
