// Package models defines the resources exchanged with the booking backend.
package models

// Country is a country flights depart from or arrive at.
type Country struct {
	// ID is the backend identifier of the country.
	ID int64 `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Symbol is the two-letter country code.
	Symbol string `json:"symbol"`
	// Flag is the path of the flag image on the backend.
	Flag string `json:"flag,omitempty"`
}

// Airline is an airline company profile.
type Airline struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country int64  `json:"country"`
	// User is the ID of the login account that owns the profile.
	User int64 `json:"user,omitempty"`
}

// Flight is a scheduled flight operated by an airline.
type Flight struct {
	ID                 int64  `json:"id"`
	Airline            int64  `json:"airline"`
	OriginCountry      int64  `json:"origin_country"`
	DestinationCountry int64  `json:"destination_country"`
	Departure          string `json:"departure_datetime"`
	Arrival            string `json:"arrival_datetime"`
	// RemainingSeats is the number of seats still available for purchase.
	RemainingSeats int `json:"remaining_seats"`
}

// Customer is a customer profile.
type Customer struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	Phone      string `json:"phone_number"`
	CreditCard string `json:"credit_card_number,omitempty"`
	User       int64  `json:"user,omitempty"`
}

// FullName joins the customer's first and last name.
func (c Customer) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// Admin is an administrator profile.
type Admin struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	User      int64  `json:"user,omitempty"`
}

// FullName joins the admin's first and last name.
func (a Admin) FullName() string {
	return joinName(a.FirstName, a.LastName)
}

// Ticket is a purchase of seats on a flight by a customer.
type Ticket struct {
	ID        int64 `json:"id"`
	Flight    int64 `json:"flight"`
	Customer  int64 `json:"customer"`
	SeatCount int   `json:"seat_count"`
}

// User is a login account together with the profile it owns. Exactly one
// of Customer, Airline and Admin is set for an active account.
type User struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	IsActive bool      `json:"is_active"`
	Customer *Customer `json:"customer,omitempty"`
	Airline  *Airline  `json:"airline,omitempty"`
	Admin    *Admin    `json:"admin,omitempty"`
}

// Profile returns the display name and ID of the account's profile.
func (u User) Profile() (name string, id int64) {
	switch {
	case u.Customer != nil:
		return u.Customer.FullName(), u.Customer.ID
	case u.Airline != nil:
		return u.Airline.Name, u.Airline.ID
	case u.Admin != nil:
		return u.Admin.FullName(), u.Admin.ID
	}
	return "", 0
}

// Pagination describes the position of a list page.
type Pagination struct {
	// Page is the 1-based number of this page.
	Page int `json:"page"`
	// Total is the number of items across all pages.
	Total int `json:"total"`
	// Limit is the page size.
	Limit int `json:"limit"`
}

// Pages returns the number of pages needed to show Total items.
func (p Pagination) Pages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// Page is one page of a paginated list response.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Account holds the login part of a registration request.
type Account struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	Email     string `json:"email"`
}

// CustomerRegistration is the payload of a customer sign-up.
type CustomerRegistration struct {
	Account
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	Phone      string `json:"phone_number"`
	CreditCard string `json:"credit_card_number"`
}

// AirlineRegistration is the payload of an airline sign-up.
type AirlineRegistration struct {
	Account
	Name    string `json:"name"`
	Country int64  `json:"country"`
}

// AdminRegistration is the payload used by admins to create another admin.
type AdminRegistration struct {
	Account
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TicketOrder is the payload of a ticket purchase.
type TicketOrder struct {
	FlightID  int64 `json:"flight_id"`
	SeatCount int   `json:"seat_count"`
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
