package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/middleware"
	"github.com/atinyakov/FlightDesk/internal/pagination"
	"github.com/atinyakov/FlightDesk/internal/registry"
	"github.com/atinyakov/FlightDesk/internal/routing"
	"github.com/atinyakov/FlightDesk/internal/ui"
)

// view renders one registry page. rt carries its label and pattern.
type view func(w http.ResponseWriter, r *http.Request, rt routing.Route)

// viewFor returns the handler for a registry route, dispatching on its
// content key. Unknown keys get a placeholder page.
func (h *Handler) viewFor(rt routing.Route) http.HandlerFunc {
	views := map[string]view{
		registry.ContentHome:     h.home,
		registry.ContentFlights:  h.flights,
		registry.ContentAirlines: h.airlines,
		registry.ContentTickets:  h.tickets,
		registry.ContentUsers:    h.users,
		registry.ContentLogin:    h.loginPage,
		registry.ContentRegister: h.registerPage,
		registry.ContentProfile:  h.profilePage,
	}
	v, ok := views[rt.Content]
	if !ok {
		h.Log.Warn("no view for page", zap.String("page", rt.Label), zap.String("content", rt.Content))
		v = func(w http.ResponseWriter, r *http.Request, rt routing.Route) {
			h.page(w, r, http.StatusOK, rt.Label, ui.Unavailable(rt.Label))
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		v(w, r, rt)
	}
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request, rt routing.Route) {
	h.page(w, r, http.StatusOK, "FlightDesk", ui.Home(middleware.IdentityFromContext(r.Context()), h.links))
}

func (h *Handler) flights(w http.ResponseWriter, r *http.Request, rt routing.Route) {
	q := r.URL.Query()
	filter := backend.FlightFilter{
		ListParams:  backend.ListParams{Limit: pageSize, Page: int(intParam(r, "page", 1))},
		Origin:      queryID(q, "origin_country"),
		Destination: queryID(q, "destination_country"),
		Airline:     queryID(q, "airline"),
		Date:        strings.TrimSpace(q.Get("date")),
	}
	notice := ""
	if q.Has("bought") {
		notice = "Your ticket has been booked."
	}
	h.renderFlights(w, r, http.StatusOK, rt.Label, routing.ListBase(rt.Pattern), filter, notice, "")
}

func (h *Handler) renderFlights(w http.ResponseWriter, r *http.Request, status int, title, base string, filter backend.FlightFilter, notice, errMsg string) {
	ctx := r.Context()
	board, err := h.booking(r).Flights(ctx, filter)
	if err != nil {
		h.Log.Warn("load flights", zap.Error(err))
		errMsg = "Could not load flights. " + userMessage(err)
		status = statusFor(err)
	}
	h.page(w, r, status, title, ui.Flights(ui.FlightsView{
		Board:  board,
		Filter: filter,
		Query:  filterQuery(filter),
		Pager:  pagination.Window(filter.Page, board.Pagination.Pages(), base),
		CanBuy: middleware.IdentityFromContext(ctx).Type == identity.Customer,
		Notice: notice,
		Error:  errMsg,
		CSRF:   ui.Field(r),
		Links:  h.links,
	}))
}

func filterQuery(f backend.FlightFilter) string {
	v := url.Values{}
	set := func(key string, id int64) {
		if id > 0 {
			v.Set(key, strconv.FormatInt(id, 10))
		}
	}
	set("origin_country", f.Origin)
	set("destination_country", f.Destination)
	set("airline", f.Airline)
	if f.Date != "" {
		v.Set("date", f.Date)
	}
	return v.Encode()
}

func queryID(q url.Values, key string) int64 {
	n, err := strconv.ParseInt(q.Get(key), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (h *Handler) airlines(w http.ResponseWriter, r *http.Request, rt routing.Route) {
	page := int(intParam(r, "page", 1))
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	dir, err := h.booking(r).Airlines(r.Context(), name, backend.ListParams{Limit: pageSize, Page: page})
	status, errMsg := http.StatusOK, ""
	if err != nil {
		h.Log.Warn("load airlines", zap.Error(err))
		status, errMsg = statusFor(err), "Could not load airlines. "+userMessage(err)
	}
	query := ""
	if name != "" {
		query = url.Values{"name": {name}}.Encode()
	}
	h.page(w, r, status, rt.Label, ui.Airlines(ui.AirlinesView{
		Directory: dir,
		Name:      name,
		Query:     query,
		Pager:     pagination.Window(page, dir.Pagination.Pages(), routing.ListBase(rt.Pattern)),
		Error:     errMsg,
		Links:     h.links,
	}))
}

// ticketLimit fetches every ticket of a customer in one page.
const ticketLimit = 100

func (h *Handler) tickets(w http.ResponseWriter, r *http.Request, rt routing.Route) {
	notice := ""
	if r.URL.Query().Has("cancelled") {
		notice = "Your ticket has been cancelled."
	}
	h.renderTickets(w, r, http.StatusOK, rt.Label, notice, "")
}

func (h *Handler) renderTickets(w http.ResponseWriter, r *http.Request, status int, title, notice, errMsg string) {
	ctx := r.Context()
	rows, _, err := h.booking(r).Tickets(ctx, middleware.IdentityFromContext(ctx), backend.ListParams{Limit: ticketLimit, Page: 1})
	if err != nil {
		h.Log.Warn("load tickets", zap.Error(err))
		status, errMsg = statusFor(err), "Could not load your tickets. "+userMessage(err)
	}
	h.page(w, r, status, title, ui.Tickets(ui.TicketsView{
		Rows:   rows,
		Notice: notice,
		Error:  errMsg,
		CSRF:   ui.Field(r),
		Links:  h.links,
	}))
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request, rt routing.Route) {
	notice := ""
	switch {
	case r.URL.Query().Has("removed"):
		notice = "The account has been removed."
	case r.URL.Query().Has("created"):
		notice = "The admin account has been created."
	}
	h.renderUsers(w, r, http.StatusOK, rt.Label, ui.FormState{}, notice)
}

func (h *Handler) renderUsers(w http.ResponseWriter, r *http.Request, status int, title string, admin ui.FormState, notice string) {
	ctx := r.Context()
	accounts, err := h.booking(r).Accounts(ctx, middleware.IdentityFromContext(ctx))
	if err != nil {
		h.fail(w, r, title, "Could not load accounts. "+userMessage(err), err)
		return
	}
	h.page(w, r, status, title, ui.Users(ui.UsersView{
		Accounts: accounts,
		Admin:    admin,
		Notice:   notice,
		CSRF:     ui.Field(r),
	}))
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request, rt routing.Route) {
	if middleware.IdentityFromContext(r.Context()).LoggedIn {
		http.Redirect(w, r, h.links.Home, http.StatusSeeOther)
		return
	}
	notice := ""
	if r.URL.Query().Has("registered") {
		notice = "Your account has been created. Please log in."
	}
	h.page(w, r, http.StatusOK, rt.Label, ui.Notice(notice), ui.Login(ui.FormState{}, ui.Field(r), h.links))
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request, rt routing.Route) {
	kind := r.URL.Query().Get("type")
	h.renderRegister(w, r, http.StatusOK, rt.Label, kind, ui.FormState{})
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, status int, title, kind string, form ui.FormState) {
	if kind != ui.RegisterAirline {
		kind = ui.RegisterCustomer
	}
	v := ui.RegisterView{Kind: kind, Form: form, CSRF: ui.Field(r), Links: h.links}
	if kind == ui.RegisterAirline {
		countries, err := h.booking(r).Countries(r.Context())
		if err != nil {
			h.fail(w, r, title, "Could not load the country list. "+userMessage(err), err)
			return
		}
		v.Countries = countries
	}
	h.page(w, r, status, title, ui.Register(v))
}

func (h *Handler) profilePage(w http.ResponseWriter, r *http.Request, rt routing.Route) {
	notice := ""
	if r.URL.Query().Has("updated") {
		notice = "Your profile has been updated."
	}
	h.renderProfile(w, r, http.StatusOK, rt.Label, ui.FormState{}, notice)
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, status int, title string, form ui.FormState, notice string) {
	ctx := r.Context()
	profile, err := h.accounts(r).Profile(ctx, middleware.IdentityFromContext(ctx))
	if err != nil {
		h.fail(w, r, title, "Could not load your profile. "+userMessage(err), err)
		return
	}
	v := ui.ProfileView{Airline: profile.Airline, Customer: profile.Customer, Form: form, Notice: notice, CSRF: ui.Field(r), Links: h.links}
	if profile.Airline != nil {
		if v.Countries, err = h.booking(r).Countries(ctx); err != nil {
			h.fail(w, r, title, "Could not load the country list. "+userMessage(err), err)
			return
		}
	}
	h.page(w, r, status, title, ui.Profile(v))
}
