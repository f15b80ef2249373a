package middleware

import (
	"net/http"
	"net/url"
	"strings"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/permission"
)

// SessionView is the read-only session state route gating needs.
// *goAccess.Manager satisfies it.
type SessionView interface {
	IsAuthenticated() bool
	Identity() *goAccess.Identity
	NeedsPasswordChange() bool
}

// Reason explains a navigation decision.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonAlreadyAuthenticated Reason = "already_authenticated"
	ReasonLoginRequired        Reason = "login_required"
	ReasonForbidden            Reason = "forbidden"
	ReasonPasswordChange       Reason = "password_change_required"
)

// Decision is the outcome of a navigation check. Redirect is empty when
// Allow is true.
type Decision struct {
	Allow    bool
	Redirect string
	Reason   Reason
}

// RouteGuard decides whether the current session may open a path.
type RouteGuard struct {
	view   SessionView
	routes map[string]permission.Route
}

// Guard returns a RouteGuard over routes. Nil routes means
// permission.DefaultRoutes.
func Guard(view SessionView, routes []permission.Route) *RouteGuard {
	if routes == nil {
		routes = permission.DefaultRoutes()
	}
	g := &RouteGuard{view: view, routes: make(map[string]permission.Route, len(routes))}
	for _, rt := range routes {
		g.routes[rt.Path] = rt
	}
	return g
}

// Decide checks target, a path with an optional query string. Rules apply
// in order: an authenticated user opening the login page goes to the
// dashboard; a non-public page without a session goes to the login page
// with the target in the redirect parameter; a role outside the route's
// roles goes to the dashboard; a pending password change sends every page
// except login and change-password to the change-password page.
//
// Paths not in the route table need a session but no particular role.
func (g *RouteGuard) Decide(target string) Decision {
	path, _, _ := strings.Cut(target, "?")
	rt, known := g.routes[path]

	authed := g.view != nil && g.view.IsAuthenticated()

	if path == permission.PathLogin && authed {
		return Decision{Redirect: permission.PathDashboard, Reason: ReasonAlreadyAuthenticated}
	}
	if !rt.Public && !authed {
		return Decision{
			Redirect: permission.PathLogin + "?redirect=" + url.QueryEscape(target),
			Reason:   ReasonLoginRequired,
		}
	}
	if known && authed {
		if id := g.view.Identity(); id != nil && id.Role != "" && !rt.Permits(id.Role) {
			return Decision{Redirect: permission.PathDashboard, Reason: ReasonForbidden}
		}
	}
	if authed && g.view.NeedsPasswordChange() &&
		path != permission.PathChangePassword && path != permission.PathLogin {
		return Decision{Redirect: permission.PathChangePassword, Reason: ReasonPasswordChange}
	}
	return Decision{Allow: true}
}

// Handler gates next by Decide. Denied requests get a 302 to the decided
// location; allowed requests carry the session identity in their context.
func (g *RouteGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Decide(r.URL.RequestURI())
		if !d.Allow {
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}

		ctx := r.Context()
		if g.view != nil {
			if id := g.view.Identity(); id != nil {
				ctx = goAccess.WithIdentity(ctx, id)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
