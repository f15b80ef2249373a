// Package lockout counts failed logins and decides when an account or
// client is temporarily barred from further attempts.
//
// [State] is the client-side counter owned by the session manager.
// [RedisLimiter] is the shared per-user counter used by the reference
// authentication service.
package lockout
