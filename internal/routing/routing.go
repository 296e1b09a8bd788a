// Package routing expands the page registry into concrete routes.
//
// Route registration is not access control: every page is routable for
// every viewer and the backend stays the authority over protected data.
package routing

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/FlightDesk/internal/registry"
)

// Route binds a path pattern to the view that renders it.
type Route struct {
	Label   string
	Pattern string
	Content string
}

// Resolve flattens reg into routes in declaration order. Pages map one to
// one and groups expand to one route per child. The result does not depend
// on who is viewing.
func Resolve(reg *registry.Registry) []Route {
	routes := make([]Route, 0, reg.Len())
	for _, p := range reg.Pages() {
		routes = append(routes, Route{Label: p.Label, Pattern: p.Path, Content: p.Content})
	}
	return routes
}

// ChiPattern rewrites :param segments into chi's {param} syntax.
func ChiPattern(pattern string) string {
	segs := strings.Split(pattern, "/")
	for i, s := range segs {
		if name, ok := strings.CutPrefix(s, ":"); ok && name != "" {
			segs[i] = "{" + name + "}"
		}
	}
	return strings.Join(segs, "/")
}

// ListBase is the part of a paginated pattern before its first parameter,
// e.g. /flights for /flights/:page.
func ListBase(pattern string) string {
	base, _, _ := strings.Cut(pattern, "/:")
	return strings.TrimSuffix(base, "/")
}

// SlashVariants returns pattern with and without its trailing slash.
func SlashVariants(pattern string) []string {
	if pattern == "/" {
		return []string{pattern}
	}
	trimmed := strings.TrimSuffix(pattern, "/")
	return []string{trimmed, trimmed + "/"}
}

// Matcher finds the route serving a concrete path using the same chi tree
// the web server routes with.
type Matcher struct {
	mux    *chi.Mux
	routes map[string]Route
}

// NewMatcher registers routes on a chi mux, with and without their
// trailing slash. When two routes share a pattern the first one wins.
func NewMatcher(routes []Route) *Matcher {
	m := &Matcher{mux: chi.NewRouter(), routes: make(map[string]Route)}
	noop := func(http.ResponseWriter, *http.Request) {}
	for _, rt := range routes {
		for _, pattern := range SlashVariants(ChiPattern(rt.Pattern)) {
			if _, taken := m.routes[pattern]; taken {
				continue
			}
			m.routes[pattern] = rt
			m.mux.Get(pattern, noop)
		}
	}
	return m
}

// Match returns the route serving path and its captured parameters.
func (m *Matcher) Match(path string) (Route, map[string]string, bool) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	rctx := chi.NewRouteContext()
	rt, ok := m.routes[m.mux.Find(rctx, http.MethodGet, path)]
	if !ok {
		return Route{}, nil, false
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	return rt, params, true
}
