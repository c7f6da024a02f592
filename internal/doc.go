// Package internal contains helpers that are intentionally private to authcore,
// currently secure session id generation.
//
// # Sub-packages
//
//   - flows: pure-function orchestrators for login and silent re-auth
//   - httpapi: JSON transport mapping engine results to HTTP responses
//   - logging: slog setup with service/version and trace attributes
//   - stores: Redis-backed remember-token store
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
