package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/models"
)

// User types accepted by Users.
const (
	UsersCustomers = "customer"
	UsersAirlines  = "airline"
	UsersAdmins    = "admin"
)

// ListParams selects one page of a list endpoint. Zero fields are omitted
// and the backend defaults apply.
type ListParams struct {
	Limit int
	Page  int
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v
}

// FlightFilter narrows the flight list. Zero fields are not sent.
type FlightFilter struct {
	ListParams
	Origin      int64
	Destination int64
	// Date is a departure date in YYYY-MM-DD form.
	Date    string
	Airline int64
}

func (f FlightFilter) values() url.Values {
	v := f.ListParams.values()
	setID(v, "origin_country", f.Origin)
	setID(v, "destination_country", f.Destination)
	setID(v, "airline", f.Airline)
	if f.Date != "" {
		v.Set("date", f.Date)
	}
	return v
}

func setID(v url.Values, key string, id int64) {
	if id > 0 {
		v.Set(key, strconv.FormatInt(id, 10))
	}
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// CSRF asks the backend to issue a CSRF cookie.
func (c *Client) CSRF(ctx context.Context) error {
	return c.get(ctx, "/api/csrf/", nil, nil)
}

// Whoami returns the identity of the current session, normalized.
func (c *Client) Whoami(ctx context.Context) (identity.Identity, error) {
	var env envelope[identity.Identity]
	if err := c.get(ctx, "/api/whoami/", nil, &env); err != nil {
		return identity.Identity{}, err
	}
	return identity.Normalize(env.Data), nil
}

// Login starts a session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	if err := c.send(ctx, http.MethodPost, "/api/login/", body, nil); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.send(ctx, http.MethodPost, "/api/logout/", struct{}{}, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Flights lists flights matching f.
func (c *Client) Flights(ctx context.Context, f FlightFilter) (models.Page[models.Flight], error) {
	var page models.Page[models.Flight]
	err := c.get(ctx, "/api/flights/", f.values(), &page)
	return page, err
}

// Airlines lists airlines whose name contains name.
func (c *Client) Airlines(ctx context.Context, name string, p ListParams) (models.Page[models.Airline], error) {
	v := p.values()
	if name != "" {
		v.Set("name", name)
	}
	var page models.Page[models.Airline]
	err := c.get(ctx, "/api/airlines/", v, &page)
	return page, err
}

// Countries lists countries. Responses are cached when a cache is set.
func (c *Client) Countries(ctx context.Context, p ListParams) (models.Page[models.Country], error) {
	var page models.Page[models.Country]
	err := c.getCached(ctx, "/api/countries/", p.values(), &page)
	return page, err
}

// Customers lists customers. Admin only.
func (c *Client) Customers(ctx context.Context, p ListParams) (models.Page[models.Customer], error) {
	var page models.Page[models.Customer]
	err := c.get(ctx, "/api/customers/", p.values(), &page)
	return page, err
}

// Admins lists admins. Admin only.
func (c *Client) Admins(ctx context.Context, p ListParams) (models.Page[models.Admin], error) {
	var page models.Page[models.Admin]
	err := c.get(ctx, "/api/admins/", p.values(), &page)
	return page, err
}

// Tickets lists the tickets visible to the session.
func (c *Client) Tickets(ctx context.Context, p ListParams) (models.Page[models.Ticket], error) {
	var page models.Page[models.Ticket]
	err := c.get(ctx, "/api/tickets/", p.values(), &page)
	return page, err
}

// Users lists login accounts of one type with their profiles. Admin only.
func (c *Client) Users(ctx context.Context, userType string) ([]models.User, error) {
	switch userType {
	case UsersCustomers, UsersAirlines, UsersAdmins:
	default:
		return nil, fmt.Errorf("unknown user type %q", userType)
	}
	var env envelope[[]models.User]
	if err := c.get(ctx, "/api/users/"+userType+"/", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Flight returns one flight.
func (c *Client) Flight(ctx context.Context, id int64) (models.Flight, error) {
	return getOne[models.Flight](ctx, c, "flight", id, false)
}

// Airline returns one airline.
func (c *Client) Airline(ctx context.Context, id int64) (models.Airline, error) {
	return getOne[models.Airline](ctx, c, "airline", id, false)
}

// Country returns one country. Responses are cached when a cache is set.
func (c *Client) Country(ctx context.Context, id int64) (models.Country, error) {
	return getOne[models.Country](ctx, c, "country", id, true)
}

// Customer returns one customer.
func (c *Client) Customer(ctx context.Context, id int64) (models.Customer, error) {
	return getOne[models.Customer](ctx, c, "customer", id, false)
}

func getOne[T any](ctx context.Context, c *Client, kind string, id int64, cached bool) (T, error) {
	var env envelope[T]
	path := itemPath(kind, id)
	var err error
	if cached {
		err = c.getCached(ctx, path, nil, &env)
	} else {
		err = c.get(ctx, path, nil, &env)
	}
	return env.Data, err
}

func itemPath(kind string, id int64) string {
	return "/api/" + kind + "/" + strconv.FormatInt(id, 10) + "/"
}

// PatchAirline updates the given fields of an airline.
func (c *Client) PatchAirline(ctx context.Context, id int64, fields map[string]any) error {
	return c.send(ctx, http.MethodPatch, itemPath("airline", id), fields, nil)
}

// PatchCustomer updates the given fields of a customer.
func (c *Client) PatchCustomer(ctx context.Context, id int64, fields map[string]any) error {
	return c.send(ctx, http.MethodPatch, itemPath("customer", id), fields, nil)
}

// DeleteAirline removes an airline.
func (c *Client) DeleteAirline(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, itemPath("airline", id), nil, nil)
}

// DeleteCustomer removes a customer.
func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, itemPath("customer", id), nil, nil)
}

// DeleteAdmin removes an admin.
func (c *Client) DeleteAdmin(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, itemPath("admin", id), nil, nil)
}

// DeleteTicket cancels a ticket.
func (c *Client) DeleteTicket(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, itemPath("ticket", id), nil, nil)
}

// BuyTicket purchases seats on a flight for the session's customer.
func (c *Client) BuyTicket(ctx context.Context, order models.TicketOrder) (models.Ticket, error) {
	var env envelope[models.Ticket]
	err := c.send(ctx, http.MethodPost, "/api/tickets/", order, &env)
	return env.Data, err
}

// RegisterCustomer signs up a new customer account.
func (c *Client) RegisterCustomer(ctx context.Context, reg models.CustomerRegistration) error {
	return c.send(ctx, http.MethodPost, "/api/customers/", reg, nil)
}

// RegisterAirline creates an airline account.
func (c *Client) RegisterAirline(ctx context.Context, reg models.AirlineRegistration) error {
	return c.send(ctx, http.MethodPost, "/api/airlines/", reg, nil)
}

// CreateAdmin creates an admin account. Admin only.
func (c *Client) CreateAdmin(ctx context.Context, reg models.AdminRegistration) error {
	return c.send(ctx, http.MethodPost, "/api/admins/", reg, nil)
}
