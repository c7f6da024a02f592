package internaldefs

import (
	"github.com/MrEthical07/authcore"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Logins that issued a session."},
	{ID: authcore.MetricLoginUserNotExist, Name: "authcore_login_user_not_exist_total", Help: "Logins rejected for an unknown username."},
	{ID: authcore.MetricLoginIncorrectPassword, Name: "authcore_login_incorrect_password_total", Help: "Logins rejected for a wrong password."},
	{ID: authcore.MetricSessionCreated, Name: "authcore_session_created_total", Help: "Sessions issued by login or reauth."},
	{ID: authcore.MetricSessionRevoked, Name: "authcore_session_revoked_total", Help: "Sessions revoked by logout."},
	{ID: authcore.MetricRememberIssued, Name: "authcore_remember_issued_total", Help: "Remember entries written."},
	{ID: authcore.MetricRememberWriteFailed, Name: "authcore_remember_write_failed_total", Help: "Remember entry writes that failed after a successful password check."},
	{ID: authcore.MetricReauthSuccess, Name: "authcore_reauth_success_total", Help: "Silent re-authentications that issued a session."},
	{ID: authcore.MetricReauthFailure, Name: "authcore_reauth_failure_total", Help: "Silent re-authentications that failed."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Successful logouts."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricLoginLatency, Name: "authcore_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one more, unbounded, bucket.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing
// buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
