// Package stores provides the Redis-backed remember-token store used for
// silent re-authentication.
//
// # Design
//
// A remember entry maps "<prefix><token>" to a user id with a fixed TTL set at
// write time (SET EX). Expiry is delegated entirely to Redis: a read after the
// TTL sees a missing key, which is reported as [ErrRememberNotFound]. Entries are
// never extended on read.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT issue tokens or resolve user
// records; those belong to the flow functions in internal/flows.
//
// # What this package must NOT do
//
//   - Import authcore or any sibling internal package.
//   - Retry Redis failures; they surface as [ErrRememberBackend].
package stores
