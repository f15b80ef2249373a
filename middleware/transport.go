package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	goAccess "github.com/MrEthical07/goAccess"
)

// DefaultLoginPath is the authentication endpoint whose 401 answers mean
// bad credentials rather than an expired session.
const DefaultLoginPath = "/auth/login"

// TokenSource is the part of the session manager an outbound transport
// needs. *goAccess.Manager satisfies it.
type TokenSource interface {
	Token() string
	Touch()
	Expire(ctx context.Context) error
}

// Transport decorates outbound requests with the session's bearer token and
// counts each request as user activity for the idle timer. A 401 response
// from any endpoint other than the login endpoint expires the session.
type Transport struct {
	// Base performs the request. Nil means http.DefaultTransport.
	Base http.RoundTripper
	// Session supplies the token. Nil disables every session hook.
	Session TokenSource
	// LoginPath overrides DefaultLoginPath.
	LoginPath string
}

// RoundTrip implements http.RoundTripper. The caller's request is never
// modified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Session == nil {
		return base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	if token := t.Session.Token(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	t.Session.Touch()

	resp, err := base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !t.isLogin(req) {
		if err := t.Session.Expire(context.WithoutCancel(req.Context())); err != nil && !errors.Is(err, goAccess.ErrOperationInProgress) {
			log.Printf("goAccess: expire session after 401: %v", err)
		}
	}
	return resp, nil
}

func (t *Transport) isLogin(req *http.Request) bool {
	path := t.LoginPath
	if path == "" {
		path = DefaultLoginPath
	}
	return req.URL != nil && strings.Contains(req.URL.Path, path)
}

// Client returns an http.Client using a Transport over base for session.
func Client(session TokenSource, base http.RoundTripper) *http.Client {
	return &http.Client{Transport: &Transport{Base: base, Session: session}}
}
