package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	g "maragu.dev/gomponents"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/middleware"
	"github.com/atinyakov/FlightDesk/internal/navigation"
	"github.com/atinyakov/FlightDesk/internal/registry"
	"github.com/atinyakov/FlightDesk/internal/service"
	"github.com/atinyakov/FlightDesk/internal/ui"
)

// pageSize is the number of rows requested for list pages.
const pageSize = 10

// Handler serves the site. Every request gets its own backend session,
// seeded from the browser's cookies, and its own identity.
type Handler struct {
	// Backend is the root client; sessions are derived from it per request.
	Backend *backend.Client
	// Registry is the page table the navigation bar and routes come from.
	Registry *registry.Registry
	// Production marks relayed cookies Secure.
	Production bool
	// Log receives handler diagnostics.
	Log *zap.Logger

	logins *loginLimiter
	// links are the page URLs of Registry, used by forms and redirects.
	links registry.Links
}

// NewHandler constructs a Handler.
func NewHandler(root *backend.Client, reg *registry.Registry, production bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Backend:    root,
		Registry:   reg,
		Production: production,
		Log:        logger,
		logins:     newLoginLimiter(loginRate, loginBurst),
		links:      reg.Links(),
	}
}

type sessionKey struct{}

// withSession stores a backend client carrying the browser's session in the
// request context.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := h.Backend.WithSessionCookies(r.Cookies())
		ctx := context.WithValue(r.Context(), sessionKey{}, client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) session(r *http.Request) *backend.Client {
	if c, ok := r.Context().Value(sessionKey{}).(*backend.Client); ok {
		return c
	}
	return h.Backend
}

// identitySource is the whoami source for middleware.Identify.
func (h *Handler) identitySource(r *http.Request) identity.Source {
	return h.session(r)
}

func (h *Handler) provider(r *http.Request) *identity.Provider {
	if p := middleware.ProviderFromContext(r.Context()); p != nil {
		return p
	}
	return identity.NewProvider(h.session(r), h.Log)
}

func (h *Handler) auth(r *http.Request) *service.AuthService {
	return service.NewAuthService(h.session(r), h.provider(r))
}

func (h *Handler) booking(r *http.Request) *service.BookingService {
	return service.NewBookingService(h.session(r))
}

func (h *Handler) accounts(r *http.Request) *service.AccountService {
	return service.NewAccountService(h.session(r))
}

// page renders body inside the site chrome for the current viewer.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, status int, title string, body ...g.Node) {
	ctx := r.Context()
	viewer := middleware.IdentityFromContext(ctx)
	chrome := ui.Chrome{
		Title:  title,
		Path:   r.URL.Path,
		Nav:    navigation.Resolve(h.Registry, viewer),
		Viewer: viewer,
		Stale:  middleware.IdentityStale(ctx),
		CSRF:   ui.Field(r),
		Links:  h.links,
	}
	h.relay(w, r)
	ui.Render(w, status, ui.Layout(chrome, body...))
}

// redirect ends a form submission with a 303 to the given location.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, to string) {
	h.relay(w, r)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// relay copies the backend cookies set during this request to the browser,
// so the browser holds the backend session between requests.
func (h *Handler) relay(w http.ResponseWriter, r *http.Request) {
	c, ok := r.Context().Value(sessionKey{}).(*backend.Client)
	if !ok {
		return
	}
	for _, ck := range c.Issued() {
		if ck.Name != backend.SessionCookie && ck.Name != backend.CSRFCookie {
			continue
		}
		out := &http.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.Production,
			SameSite: http.SameSiteLaxMode,
		}
		switch {
		case ck.MaxAge < 0 || ck.Value == "" || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())):
			out.Value = ""
			out.MaxAge = -1
		case ck.MaxAge > 0:
			out.MaxAge = ck.MaxAge
		case !ck.Expires.IsZero():
			out.Expires = ck.Expires
		}
		http.SetCookie(w, out)
	}
}

// fail logs err and renders message in place of the page content.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, title, message string, err error) {
	h.Log.Warn("request failed",
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	h.page(w, r, statusFor(err), title, ui.Alert(message))
}

// statusFor maps an error from the service layer to a response status.
func statusFor(err error) int {
	var apiErr *backend.APIError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotAllowed):
		return http.StatusForbidden
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		return apiErr.Status
	}
	return http.StatusBadGateway
}

// userMessage is the text shown to the viewer for err.
func userMessage(err error) string {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, service.ErrNotAllowed):
		return "Your account cannot do that."
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		return strings.Join(backend.Messages(err), " ")
	}
	return "The booking service is unavailable. Please try again later."
}

// formState keeps the submitted values of r and the errors of err for
// re-rendering a form.
func formState(r *http.Request, err error) ui.FormState {
	st := ui.FormState{Values: make(map[string]string, len(r.PostForm))}
	for k := range r.PostForm {
		if strings.HasPrefix(k, "password") || k == "csrf_token" {
			continue
		}
		st.Values[k] = r.PostForm.Get(k)
	}
	if err == nil {
		return st
	}
	var inputErr *service.InputError
	if errors.As(err, &inputErr) {
		st.Fields = inputErr.Fields
		return st
	}
	st.Error = userMessage(err)
	return st
}

// intParam parses a positive integer URL parameter. Missing or invalid
// values give def.
func intParam(r *http.Request, name string, def int64) int64 {
	raw := chi.URLParam(r, name)
	if raw == "" {
		raw = r.URL.Query().Get(name)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func formInt(r *http.Request, name string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get(name)), 10, 64)
	return n
}
