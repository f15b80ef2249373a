// Package middleware connects a goAccess session to HTTP.
//
// # Outbound
//
// [Transport] is an http.RoundTripper that attaches the session token as a
// bearer header, re-arms the idle timer on every request and expires the
// session when the server answers 401 outside the login endpoint.
//
// # Navigation
//
// [Guard] builds a [RouteGuard] whose Decide method is a pure function of
// the session state and the route table. RouteGuard.Handler adapts it to
// net/http with 302 redirects.
//
// This package does not authenticate anyone itself. Token, identity and
// password-change state all come from the session manager.
package middleware
