// Package goAccess is the session and access-control core of a role-based
// student records client.
//
// [Manager] owns one client session: the token, the resolved [Identity],
// the failed-login lockout, password age and an idle timer. It calls an
// external [Authenticator] for login, identity refresh and logout, and
// mirrors the durable fields into a [session.Mirror] so a session survives
// restarts.
//
// # State machine
//
//	Anonymous -> Authenticating -> Authenticated -> Anonymous
//	Anonymous -> Authenticating -> LockedOut (after the failure threshold)
//
// NeedsPasswordChange is a derived flag, not a separate state.
//
// Session invariant: IsAuthenticated is true exactly when a token and an
// identity are both held.
//
// Related packages: crypt (hashing, ciphers, signatures), password (policy
// engine), mask (display masking), permission (roles and permission
// resolution), session (mirror backends), middleware (bearer transport and
// route guard), localauth (in-process reference Authenticator).
package goAccess
