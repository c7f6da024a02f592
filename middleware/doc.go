// Package middleware exposes the HTTP guard that requires a live authcore
// session on a route.
//
// [Guard] reads the Authorization header, resolves the bearer token through
// Engine.SessionUser, and injects a [Principal] into the request context.
//
// # What this package must NOT do
//
//   - Parse or create session tokens directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject.
package middleware
