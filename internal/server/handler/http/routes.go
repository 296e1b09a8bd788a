package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/FlightDesk/internal/middleware"
	"github.com/atinyakov/FlightDesk/internal/routing"
	"github.com/atinyakov/FlightDesk/internal/ui"
)

// NewRouter constructs and returns an HTTP handler that serves the site.
//
// Page routes come from the registry, one GET route per page in registry
// order, each reachable with and without a trailing slash. They are
// registered for every viewer; the backend decides what data a viewer may
// see.
//
// Form routes (the login, register and profile forms post to their page
// URLs in the registry, shown here with the built-in ones):
//
//	POST /login/                     → h.Login (rate limited per address)
//	POST /logout/                    → h.Logout
//	POST /register/                  → h.Register
//	POST /profile/                   → h.UpdateProfile
//	POST /flights/{id}/buy           → h.Buy
//	POST /tickets/{id}/cancel        → h.Cancel
//	POST /users/admins               → h.CreateAdmin
//	POST /users/{type}/{id}/remove   → h.RemoveAccount
//
// Middleware chain (applied in order):
//  1. WithRequestLogging(logger)  logs each request with its id
//  2. Recoverer                   turns panics into 500s
//  3. withSession                 derives the browser's backend session
//  4. Identify                    resolves the viewer via whoami
//  5. CSRF Ensure and Require     protect the HTML forms
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	csrf := ui.CSRF{Secure: h.Production}

	r := chi.NewRouter()
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(h.withSession)
	r.Use(middleware.Identify(h.identitySource, logger))
	r.Use(csrf.Ensure)
	r.Use(csrf.Require)

	for _, rt := range routing.Resolve(h.Registry) {
		handler := h.viewFor(rt)
		for _, pattern := range routing.SlashVariants(routing.ChiPattern(rt.Pattern)) {
			r.Get(pattern, handler)
		}
	}

	forms := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{h.links.Login, h.Login},
		{h.links.Logout, h.Logout},
		{h.links.Register, h.Register},
		{h.links.Profile, h.UpdateProfile},
	}
	for _, f := range forms {
		for _, pattern := range routing.SlashVariants(f.path) {
			r.Post(pattern, f.handler)
		}
	}
	r.Post("/flights/{id}/buy", h.Buy)
	r.Post("/tickets/{id}/cancel", h.Cancel)
	r.Post("/users/admins", h.CreateAdmin)
	r.Post("/users/{type}/{id}/remove", h.RemoveAccount)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		h.page(w, req, http.StatusNotFound, "Not found", ui.Alert("There is no page at "+req.URL.Path+"."))
	})

	return r
}
