package guard

import (
	"context"
	"net/url"
	"strings"
)

// Func is a single guard.
type Func func(ctx context.Context, dest string) Decision

// Route binds a path pattern to the guards that protect it. Patterns match
// segment by segment; ":name" matches any one segment and a trailing "**"
// matches the rest of the path.
type Route struct {
	Pattern string
	Guards  []Func
}

// Router resolves a path against its routes and runs their guards in order.
type Router struct {
	routes []Route
}

// NewRouter returns a router over routes. The first matching route wins.
func NewRouter(routes ...Route) *Router {
	return &Router{routes: routes}
}

// DefaultRoutes is the WorkConnect route table.
func DefaultRoutes(g *Guards) []Route {
	return []Route{
		{Pattern: "/", Guards: []Func{g.RootRedirect}},
		{Pattern: "/login", Guards: []Func{g.Public}},
		{Pattern: "/register", Guards: []Func{g.Public}},
		{Pattern: "/jobs"},
		{Pattern: "/job/:id"},
		{Pattern: "/profile/:id"},
		{Pattern: "/app/admin/**", Guards: []Func{g.Auth, g.Admin}},
		{Pattern: "/app/**", Guards: []Func{g.Auth}},
	}
}

// Navigate runs the guards of the route matching path. A path with no route
// is allowed through; rendering "not found" is not a guard's job.
func (r *Router) Navigate(ctx context.Context, path string) Decision {
	route, ok := r.Match(path)
	if !ok {
		return allow()
	}
	for _, guard := range route.Guards {
		if d := guard(ctx, path); !d.Allow {
			return d
		}
	}
	return allow()
}

// Match returns the first route whose pattern matches path.
func (r *Router) Match(path string) (Route, bool) {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	for _, route := range r.routes {
		if matchPattern(route.Pattern, path) {
			return route, true
		}
	}
	return Route{}, false
}

func matchPattern(pattern, path string) bool {
	ps := splitPath(pattern)
	xs := splitPath(path)
	for i, p := range ps {
		if p == "**" {
			return true
		}
		if i >= len(xs) {
			return false
		}
		if !strings.HasPrefix(p, ":") && p != xs[i] {
			return false
		}
	}
	return len(ps) == len(xs)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
