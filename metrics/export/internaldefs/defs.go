package internaldefs

import (
	portalauth "github.com/infound/portal-auth"
)

// CounterDef binds one engine counter to its exported name.
type CounterDef struct {
	ID   portalauth.MetricID
	Name string
	Help string
}

// HistogramDef binds one engine histogram to its exported name.
type HistogramDef struct {
	ID   portalauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in engine order.
var CounterDefs = []CounterDef{
	{ID: portalauth.MetricLoginSuccess, Name: "portalauth_login_success_total", Help: "Successful login attempts."},
	{ID: portalauth.MetricLoginFailure, Name: "portalauth_login_failure_total", Help: "Rejected login attempts."},
	{ID: portalauth.MetricVerifySuccess, Name: "portalauth_verify_success_total", Help: "Requests that authenticated."},
	{ID: portalauth.MetricVerifyMissing, Name: "portalauth_verify_missing_total", Help: "Requests carrying no access token."},
	{ID: portalauth.MetricVerifyMalformed, Name: "portalauth_verify_malformed_total", Help: "Tokens that failed decode or signature checks."},
	{ID: portalauth.MetricVerifyExpired, Name: "portalauth_verify_expired_total", Help: "Well-signed tokens past expiry."},
	{ID: portalauth.MetricVerifyNotLive, Name: "portalauth_verify_not_live_total", Help: "Valid tokens whose session was logged out or evicted."},
	{ID: portalauth.MetricStoreUnavailable, Name: "portalauth_store_unavailable_total", Help: "Session-store infrastructure faults."},
	{ID: portalauth.MetricSessionEvicted, Name: "portalauth_session_evicted_total", Help: "Sessions dropped by the per-user cap."},
	{ID: portalauth.MetricLogout, Name: "portalauth_logout_total", Help: "Single-session logout operations."},
	{ID: portalauth.MetricLogoutAll, Name: "portalauth_logout_all_total", Help: "Logout-all operations."},
}

// HistogramDefs lists every exported histogram in engine order.
var HistogramDefs = []HistogramDef{
	{ID: portalauth.MetricVerifyLatency, Name: "portalauth_verify_latency_seconds", Help: "Token verification latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's
// fixed latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix holds metric-name-safe forms of HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// exporters expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
