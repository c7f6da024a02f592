// Package otel publishes authcore metrics as OpenTelemetry instruments.
//
// Engine counters are grouped by concern rather than exported one to one:
//
//	authcore.login.attempts    outcome=success|user_not_exist|incorrect_password
//	authcore.reauth.attempts   outcome=success|failure
//	authcore.sessions          event=created|revoked
//	authcore.remember.writes   result=issued|failed
//	authcore.logouts
//	authcore.login.latency.bucket  le=<bound seconds>|+Inf (cumulative)
//	authcore.login.latency.count
//
// One callback reads [authcore.Engine.MetricsSnapshot] per collection cycle.
// Callers own the MeterProvider and its readers.
package otel
