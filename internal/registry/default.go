package registry

import "github.com/atinyakov/FlightDesk/internal/identity"

// Content keys understood by the built-in views.
const (
	ContentHome     = "home"
	ContentFlights  = "flights"
	ContentAirlines = "airlines"
	ContentTickets  = "tickets"
	ContentUsers    = "users"
	ContentLogin    = "login"
	ContentRegister = "register"
	ContentProfile  = "profile"
)

// Default returns the page table of the flight site.
func Default() *Registry {
	return MustNew(
		PageEntry{Label: "Home", Path: "/", Content: ContentHome, NavHidden: true},
		PageEntry{Label: "Flights", Path: "/flights/:page", Link: "/flights/1/", Content: ContentFlights},
		PageEntry{Label: "Airlines", Path: "/airlines/:page", Link: "/airlines/1/", Content: ContentAirlines},
		PageEntry{
			Label:        "Tickets",
			Path:         "/tickets/",
			Content:      ContentTickets,
			RestrictedTo: []identity.Type{identity.Customer},
		},
		PageEntry{
			Label:        "Users",
			Path:         "/users/",
			Content:      ContentUsers,
			RestrictedTo: []identity.Type{identity.Admin},
		},
		PageEntry{
			Label:        "Profile",
			Path:         "/profile/",
			Content:      ContentProfile,
			NavHidden:    true,
			RestrictedTo: []identity.Type{identity.Airline, identity.Customer},
		},
		Group{
			Name:         "Account",
			RestrictedTo: []identity.Type{identity.Anon},
			Children: []PageEntry{
				{Label: "Login", Path: "/login/", Content: ContentLogin},
				{Label: "Register", Path: "/register/", Content: ContentRegister},
			},
		},
	)
}
