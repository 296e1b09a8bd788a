package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/middleware"
	"github.com/atinyakov/FlightDesk/internal/registry"
	"github.com/atinyakov/FlightDesk/internal/routing"
	"github.com/atinyakov/FlightDesk/internal/service"
)

// Buy orders seats on the flight in the URL for the logged-in customer.
// A failed purchase re-renders the flight board with the reason.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	ctx := r.Context()
	flightID := intParam(r, "id", 0)
	seats := int(formInt(r, "seat_count"))

	ticket, err := h.booking(r).Buy(ctx, middleware.IdentityFromContext(ctx), flightID, seats)
	if err != nil {
		h.Log.Info("ticket purchase rejected", zap.Int64("flight", flightID), zap.Int("seats", seats), zap.Error(err))
		msg := "Could not buy the ticket. " + userMessage(err)
		if f := formState(r, err).Fields; f != nil {
			msg = "Could not buy the ticket. " + f["seat_count"]
		}
		filter := backend.FlightFilter{ListParams: backend.ListParams{Limit: pageSize, Page: 1}}
		title, base := "Flights", "/flights"
		if p, ok := h.Registry.Page(registry.ContentFlights); ok {
			title, base = p.Label, routing.ListBase(p.Path)
		}
		h.renderFlights(w, r, statusFor(err), title, base, filter, "", msg)
		return
	}
	h.Log.Info("ticket bought", zap.Int64("ticket", ticket.ID), zap.Int64("flight", flightID))
	h.redirect(w, r, h.links.Flights+"?bought=1")
}

// Cancel cancels one of the customer's tickets.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticketID := intParam(r, "id", 0)
	if err := h.booking(r).Cancel(ctx, middleware.IdentityFromContext(ctx), ticketID); err != nil {
		h.Log.Info("ticket cancellation rejected", zap.Int64("ticket", ticketID), zap.Error(err))
		h.renderTickets(w, r, statusFor(err), "Tickets", "", "Could not cancel the ticket. "+userMessage(err))
		return
	}
	h.redirect(w, r, h.links.Tickets+"?cancelled=1")
}

// RemoveAccount lets an admin delete a customer or airline profile.
func (h *Handler) RemoveAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userType := chi.URLParam(r, "type")
	id := intParam(r, "id", 0)
	if err := h.accounts(r).Remove(ctx, middleware.IdentityFromContext(ctx), userType, id); err != nil {
		h.fail(w, r, "Users", "Could not remove the account. "+userMessage(err), err)
		return
	}
	h.Log.Info("account removed", zap.String("type", userType), zap.Int64("id", id))
	h.redirect(w, r, h.links.Users+"?removed=1")
}

// CreateAdmin lets an admin add another admin account.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f := r.PostForm
	err := h.auth(r).CreateAdmin(r.Context(), service.AdminSignup{
		Account: service.Account{
			Username:  strings.TrimSpace(f.Get("username")),
			Email:     strings.TrimSpace(f.Get("email")),
			Password:  f.Get("password"),
			Password2: f.Get("password2"),
		},
		FirstName: strings.TrimSpace(f.Get("first_name")),
		LastName:  strings.TrimSpace(f.Get("last_name")),
	})
	if err != nil {
		h.Log.Info("admin creation rejected", zap.Error(err))
		h.renderUsers(w, r, statusFor(err), "Users", formState(r, err), "")
		return
	}
	h.redirect(w, r, h.links.Users+"?created=1")
}
