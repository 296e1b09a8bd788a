// Package http serves the FlightDesk site: page routes generated from the
// registry plus the form endpoints for accounts and bookings.
package http

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atinyakov/FlightDesk/internal/middleware"
	"github.com/atinyakov/FlightDesk/internal/service"
	"github.com/atinyakov/FlightDesk/internal/ui"
)

// Login attempts allowed per client address: a burst of loginBurst, then
// one every loginRate.
const (
	loginRate  = 12 * time.Second
	loginBurst = 5
	limiterTTL = 10 * time.Minute
)

// Login handles the login form.
// On success the backend session cookie is relayed to the browser and the
// viewer is sent home. Invalid input and rejected credentials re-render
// the form with the backend's message.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.logins.allow(clientIP(r), time.Now()) {
		w.Header().Set("Retry-After", "60")
		h.page(w, r, http.StatusTooManyRequests, "Login",
			ui.Login(ui.FormState{Error: "Too many login attempts. Please wait a minute and try again."}, ui.Field(r), h.links))
		return
	}
	_ = r.ParseForm()
	creds := service.Credentials{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	if _, err := h.auth(r).Login(r.Context(), creds); err != nil {
		h.Log.Info("login rejected", zap.String("username", creds.Username), zap.Error(err))
		h.page(w, r, statusFor(err), "Login", ui.Login(formState(r, err), ui.Field(r), h.links))
		return
	}
	h.redirect(w, r, h.links.Home)
}

// Logout ends the backend session and clears it in the browser.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth(r).Logout(r.Context()); err != nil {
		h.fail(w, r, "Logout", "Could not log out. "+userMessage(err), err)
		return
	}
	h.redirect(w, r, h.links.Login)
}

// Register handles the customer and airline sign-up form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f := r.PostForm
	account := service.Account{
		Username:  strings.TrimSpace(f.Get("username")),
		Email:     strings.TrimSpace(f.Get("email")),
		Password:  f.Get("password"),
		Password2: f.Get("password2"),
	}

	kind := f.Get("account_type")
	auth := h.auth(r)
	var err error
	if kind == ui.RegisterAirline {
		err = auth.RegisterAirline(r.Context(), service.AirlineSignup{
			Account: account,
			Name:    strings.TrimSpace(f.Get("name")),
			Country: formInt(r, "country"),
		})
	} else {
		err = auth.RegisterCustomer(r.Context(), service.CustomerSignup{
			Account:    account,
			FirstName:  strings.TrimSpace(f.Get("first_name")),
			LastName:   strings.TrimSpace(f.Get("last_name")),
			Address:    strings.TrimSpace(f.Get("address")),
			Phone:      strings.TrimSpace(f.Get("phone_number")),
			CreditCard: strings.TrimSpace(f.Get("credit_card_number")),
		})
	}
	if err != nil {
		h.Log.Info("registration rejected", zap.String("username", account.Username), zap.Error(err))
		h.renderRegister(w, r, statusFor(err), "Register", kind, formState(r, err))
		return
	}
	if middleware.IdentityFromContext(r.Context()).LoggedIn {
		h.redirect(w, r, h.links.Home)
		return
	}
	h.redirect(w, r, h.links.Login+"?registered=1")
}

// UpdateProfile handles the edit-profile form of airlines and customers.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f := r.PostForm
	update := service.ProfileUpdate{
		Name:       f.Get("name"),
		Country:    formInt(r, "country"),
		FirstName:  f.Get("first_name"),
		LastName:   f.Get("last_name"),
		Address:    f.Get("address"),
		Phone:      strings.TrimSpace(f.Get("phone_number")),
		CreditCard: f.Get("credit_card_number"),
	}
	ctx := r.Context()
	if err := h.accounts(r).UpdateProfile(ctx, middleware.IdentityFromContext(ctx), update); err != nil {
		h.Log.Info("profile update rejected", zap.Error(err))
		h.renderProfile(w, r, statusFor(err), "Profile", formState(r, err), "")
		return
	}
	// The entity name in the welcome bar may have changed.
	_, _ = h.provider(r).Refresh(ctx)
	h.redirect(w, r, h.links.Profile+"?updated=1")
}

// loginLimiter keeps a token bucket per client address.
type loginLimiter struct {
	every rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter
	swept   time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter(every time.Duration, burst int) *loginLimiter {
	return &loginLimiter{
		every:   rate.Every(every),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
}

// allow reports whether ip may attempt a login now. Idle entries are
// dropped on the way.
func (l *loginLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.swept) > limiterTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterTTL {
				delete(l.clients, k)
			}
		}
		l.swept = now
	}
	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// clientIP extracts the client address from the request, stripping the port.
// X-Forwarded-For is ignored since it can be forged.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
