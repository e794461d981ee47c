// Package guard decides whether navigation to a route is allowed for the
// current session, and where to send the user when it is not.
package guard

import (
	"context"
	"net/url"

	"github.com/workconnect/session/internal/metrics"
	"github.com/workconnect/session/internal/store"
	"github.com/workconnect/session/internal/token"
	"go.uber.org/zap"
)

// Well-known routes
const (
	RouteHome           = "/"
	RouteLogin          = "/login"
	RouteApp            = "/app"
	RouteDashboard      = "/app/dashboard"
	RouteAdminDashboard = "/app/admin/dashboard"
)

// Decision is the outcome of a guard. When Allow is false, Redirect (plus
// Query) is where the user should be sent instead.
type Decision struct {
	Allow    bool
	Redirect string
	Query    url.Values
}

// Target renders the redirect with its query string.
func (d Decision) Target() string {
	if len(d.Query) == 0 {
		return d.Redirect
	}
	return d.Redirect + "?" + d.Query.Encode()
}

func allow() Decision { return Decision{Allow: true} }

func redirect(to string) Decision { return Decision{Redirect: to} }

// LoginRedirect sends the user to the login page, remembering returnURL.
func LoginRedirect(returnURL string) Decision {
	d := redirect(RouteLogin)
	if returnURL != "" {
		d.Query = url.Values{"returnUrl": {returnURL}}
	}
	return d
}

// Landing is the route an authenticated user of role r starts on.
func Landing(r token.Role) string {
	switch r {
	case token.RoleAdmin:
		return RouteAdminDashboard
	case token.RoleWorker, token.RoleEmployer:
		return RouteDashboard
	default:
		return RouteApp
	}
}

// SessionReader is satisfied by *session.State.
type SessionReader interface {
	IsLoggedIn(ctx context.Context) bool
	Role(ctx context.Context) token.Role
}

// LogoutFunc ends the session. Guards call it when a token is present but
// carries no usable role.
type LogoutFunc func(ctx context.Context) error

// Guards holds the route guards
type Guards struct {
	session SessionReader
	store   store.Store
	logout  LogoutFunc
	logger  *zap.Logger
}

// New creates the guards
func New(session SessionReader, st store.Store, logout LogoutFunc, logger *zap.Logger) *Guards {
	return &Guards{
		session: session,
		store:   st,
		logout:  logout,
		logger:  logger,
	}
}

// Auth allows authenticated users with a resolvable role. Anyone else is sent
// to login, with dest remembered as the return URL.
func (g *Guards) Auth(ctx context.Context, dest string) Decision {
	d := g.auth(ctx, dest)
	metrics.RecordGuardDecision("auth", d.Allow)
	return d
}

func (g *Guards) auth(ctx context.Context, dest string) Decision {
	if !g.session.IsLoggedIn(ctx) {
		g.rememberReturnURL(ctx, dest)
		return LoginRedirect(dest)
	}
	if g.session.Role(ctx) == "" {
		g.correctiveLogout(ctx)
		return redirect(RouteLogin)
	}
	return allow()
}

// Public allows only anonymous users; authenticated users go to their
// landing route.
func (g *Guards) Public(ctx context.Context, dest string) Decision {
	d := allow()
	if g.session.IsLoggedIn(ctx) {
		d = redirect(Landing(g.session.Role(ctx)))
	}
	metrics.RecordGuardDecision("public", d.Allow)
	return d
}

// Admin allows ADMIN only. Other authenticated users go to their own landing
// route; anonymous users go to login.
func (g *Guards) Admin(ctx context.Context, dest string) Decision {
	var d Decision
	switch {
	case !g.session.IsLoggedIn(ctx):
		g.rememberReturnURL(ctx, dest)
		d = LoginRedirect(dest)
	case g.session.Role(ctx) == token.RoleAdmin:
		d = allow()
	default:
		d = redirect(Landing(g.session.Role(ctx)))
	}
	metrics.RecordGuardDecision("admin", d.Allow)
	return d
}

// RootRedirect sends authenticated users from the root path to their landing
// route and lets anonymous users through to the home page.
func (g *Guards) RootRedirect(ctx context.Context, dest string) Decision {
	d := allow()
	if g.session.IsLoggedIn(ctx) {
		role := g.session.Role(ctx)
		if role == "" {
			g.correctiveLogout(ctx)
		} else {
			d = redirect(Landing(role))
		}
	}
	metrics.RecordGuardDecision("root", d.Allow)
	return d
}

func (g *Guards) rememberReturnURL(ctx context.Context, dest string) {
	if dest == "" {
		return
	}
	if err := g.store.SetReturnURL(ctx, dest); err != nil {
		g.logger.Warn("failed to remember return url", zap.String("url", dest), zap.Error(err))
	}
}

func (g *Guards) correctiveLogout(ctx context.Context) {
	g.logger.Info("token has no usable role, logging out")
	if g.logout == nil {
		return
	}
	if err := g.logout(ctx); err != nil {
		g.logger.Warn("corrective logout failed", zap.Error(err))
	}
}
