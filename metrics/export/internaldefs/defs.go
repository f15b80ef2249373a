package internaldefs

import (
	goAccess "github.com/MrEthical07/goAccess"
)

// Namespace prefixes every exported metric name.
const Namespace = "goaccess"

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goAccess.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goAccess.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goAccess.MetricLoginSuccess, Name: "goaccess_login_success_total", Help: "Successful logins."},
	{ID: goAccess.MetricLoginFailure, Name: "goaccess_login_failure_total", Help: "Logins rejected by the authenticator."},
	{ID: goAccess.MetricLoginLockedOut, Name: "goaccess_login_locked_out_total", Help: "Logins rejected by an active lockout without contacting the authenticator."},
	{ID: goAccess.MetricLockoutTriggered, Name: "goaccess_lockout_triggered_total", Help: "Failed logins that started a lockout."},
	{ID: goAccess.MetricLogout, Name: "goaccess_logout_total", Help: "Completed logouts, including idle and forced ones."},
	{ID: goAccess.MetricLogoutRemoteFailure, Name: "goaccess_logout_remote_failure_total", Help: "Logouts whose remote call failed after local cleanup."},
	{ID: goAccess.MetricIdleLogout, Name: "goaccess_idle_logout_total", Help: "Logouts fired by the idle timer."},
	{ID: goAccess.MetricRefreshSuccess, Name: "goaccess_identity_refresh_success_total", Help: "Successful identity refreshes."},
	{ID: goAccess.MetricRefreshFailure, Name: "goaccess_identity_refresh_failure_total", Help: "Identity refreshes that expired the session."},
	{ID: goAccess.MetricPasswordChangeSuccess, Name: "goaccess_password_change_success_total", Help: "Successful password changes."},
	{ID: goAccess.MetricPasswordChangeRejected, Name: "goaccess_password_change_rejected_total", Help: "Password changes rejected by policy, confirmation or reuse checks."},
	{ID: goAccess.MetricMirrorWriteFailure, Name: "goaccess_mirror_write_failure_total", Help: "Durable session mirror writes that failed."},
}

var HistogramDefs = []HistogramDef{
	{ID: goAccess.MetricLoginLatency, Name: "goaccess_login_latency_seconds", Help: "Time spent waiting on the authenticator during login."},
}

// BucketCount is the number of latency slots including the overflow slot.
const BucketCount = len(goAccess.HistogramBounds) + 1

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, len(goAccess.HistogramBounds))
	for i, d := range goAccess.HistogramBounds {
		out[i] = d.Seconds()
	}
	return out
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-slot counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}

// ObservationSum approximates the sum of observed seconds using each
// slot's upper bound. The overflow slot uses the last finite bound.
func ObservationSum(raw [BucketCount]uint64) float64 {
	bounds := UpperBounds()
	var sum float64
	for i, v := range raw {
		b := bounds[len(bounds)-1]
		if i < len(bounds) {
			b = bounds[i]
		}
		sum += float64(v) * b
	}
	return sum
}
