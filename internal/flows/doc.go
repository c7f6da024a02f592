// Package flows contains pure-function orchestrators for the Engine's login and
// silent re-auth operations.
//
// Each flow function (RunLogin, RunReauth) accepts a typed dependency struct and
// returns results without side-effects beyond those dependencies. This keeps the
// Engine type thin and lets every branch be tested with in-memory fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential store, password verifier,
// session issuer, remember store, logger, and metrics. They do NOT own any of
// these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency funcs.
package flows
