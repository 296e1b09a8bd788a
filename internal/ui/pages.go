package ui

import (
	"fmt"
	"strconv"
	"strings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/models"
	"github.com/atinyakov/FlightDesk/internal/pagination"
	"github.com/atinyakov/FlightDesk/internal/registry"
	"github.com/atinyakov/FlightDesk/internal/service"
)

// Home is the landing page.
func Home(viewer identity.Identity, links registry.Links) Node {
	links = links.OrDefault()
	var next Node
	switch viewer.Type {
	case identity.Customer:
		next = P(Text("Find a flight and book your seats, or review "), A(Href(links.Tickets), Text("your tickets")), Text("."))
	case identity.Admin:
		next = P(Text("Manage "), A(Href(links.Users), Text("customer and airline accounts")), Text("."))
	case identity.Airline:
		next = P(Text("Browse the "), A(Href(links.Flights), Text("flight board")), Text("."))
	default:
		next = P(A(Href(links.Login), Text("Log in")), Text(" or "), A(Href(links.Register), Text("create an account")), Text(" to book flights."))
	}
	return Group{
		P(Text("Search flights between countries and book seats in a few clicks.")),
		next,
	}
}

// Unavailable is shown for registry pages that have no view.
func Unavailable(label string) Node {
	return P(Textf("The %s page is not available yet.", label))
}

// FlightsView is the data of the flight board.
type FlightsView struct {
	Board  service.FlightBoard
	Filter backend.FlightFilter
	// Query is the encoded filter, appended to pager links.
	Query  string
	Pager  pagination.Pager
	CanBuy bool
	Notice string
	Error  string
	CSRF   Node
	Links  registry.Links
}

// Flights renders the flight board with its filters.
func Flights(v FlightsView) Node {
	rows := make([]Node, 0, len(v.Board.Rows))
	for _, f := range v.Board.Rows {
		rows = append(rows, Tr(
			Td(Text(f.AirlineName)),
			Td(Text(f.Origin)),
			Td(Text(f.Destination)),
			Td(Text(f.Departure)),
			Td(Text(f.Arrival)),
			Td(Text(strconv.Itoa(f.RemainingSeats))),
			If(v.CanBuy, Td(buyForm(f.Flight, v.CSRF))),
		))
	}

	return Group{
		Notice(v.Notice),
		Alert(v.Error),
		Form(
			Method("get"),
			Action(v.Links.OrDefault().Flights),
			Class("filters"),
			countrySelect("origin_country", "From", v.Board.Countries, v.Filter.Origin, true),
			countrySelect("destination_country", "To", v.Board.Countries, v.Filter.Destination, true),
			Div(Class("field"),
				Label(For("date"), Text("Date")),
				Input(ID("date"), Name("date"), Type("date"), Value(v.Filter.Date)),
			),
			Button(Type("submit"), Class("btn"), Text("Search")),
		),
		If(len(rows) == 0 && v.Error == "", P(Text("No flights match your search."))),
		If(len(rows) > 0, Table(
			THead(Tr(
				Th(Text("Airline")),
				Th(Text("From")),
				Th(Text("To")),
				Th(Text("Departure")),
				Th(Text("Arrival")),
				Th(Text("Seats left")),
				If(v.CanBuy, Th()),
			)),
			TBody(Group(rows)),
		)),
		Pager(v.Pager, v.Query),
	}
}

func buyForm(f models.Flight, csrf Node) Node {
	if f.RemainingSeats <= 0 {
		return Text("Sold out")
	}
	return Form(
		Method("post"),
		Action(fmt.Sprintf("/flights/%d/buy", f.ID)),
		Class("inline"),
		csrf,
		Input(Type("number"), Name("seat_count"), Value("1"), Min("1"), Max(strconv.Itoa(f.RemainingSeats)), Attr("aria-label", "Seats")),
		Button(Type("submit"), Class("btn"), Text("Buy")),
	)
}

// AirlinesView is the data of the airline directory.
type AirlinesView struct {
	Directory service.AirlineDirectory
	Name      string
	Query     string
	Pager     pagination.Pager
	Error     string
	Links     registry.Links
}

// Airlines renders the airline directory.
func Airlines(v AirlinesView) Node {
	rows := make([]Node, 0, len(v.Directory.Rows))
	for _, a := range v.Directory.Rows {
		rows = append(rows, Tr(Td(Text(a.Name)), Td(Text(a.CountryName))))
	}
	return Group{
		Alert(v.Error),
		Form(
			Method("get"),
			Action(v.Links.OrDefault().Airlines),
			Class("filters"),
			Div(Class("field"),
				Label(For("name"), Text("Name")),
				Input(ID("name"), Name("name"), Type("search"), Value(v.Name), Placeholder("Airline name")),
			),
			Button(Type("submit"), Class("btn"), Text("Search")),
		),
		If(len(rows) == 0 && v.Error == "", P(Text("No airlines found."))),
		If(len(rows) > 0, Table(
			THead(Tr(Th(Text("Name")), Th(Text("Country")))),
			TBody(Group(rows)),
		)),
		Pager(v.Pager, v.Query),
	}
}

// TicketsView is the data of the customer's ticket list.
type TicketsView struct {
	Rows   []service.TicketRow
	Pager  pagination.Pager
	Notice string
	Error  string
	CSRF   Node
	Links  registry.Links
}

// Tickets renders the viewer's tickets.
func Tickets(v TicketsView) Node {
	rows := make([]Node, 0, len(v.Rows))
	for _, t := range v.Rows {
		rows = append(rows, Tr(
			Td(Textf("#%d", t.ID)),
			Td(Textf("%s → %s", t.Origin.Name, t.Destination.Name)),
			Td(Text(t.Flight.Departure)),
			Td(Text(strconv.Itoa(t.SeatCount))),
			Td(Form(
				Method("post"),
				Action(fmt.Sprintf("/tickets/%d/cancel", t.ID)),
				Class("inline"),
				v.CSRF,
				Button(Type("submit"), Class("btn"), Text("Cancel")),
			)),
		))
	}
	return Group{
		Notice(v.Notice),
		Alert(v.Error),
		If(len(rows) == 0 && v.Error == "", P(Text("You have no tickets yet. "), A(Href(v.Links.OrDefault().Flights), Text("Find a flight")), Text("."))),
		If(len(rows) > 0, Table(
			THead(Tr(Th(Text("Ticket")), Th(Text("Route")), Th(Text("Departure")), Th(Text("Seats")), Th())),
			TBody(Group(rows)),
		)),
		Pager(v.Pager, ""),
	}
}

// UsersView is the data of the admin account list.
type UsersView struct {
	Accounts service.Accounts
	Admin    FormState
	Notice   string
	Error    string
	CSRF     Node
}

// Users renders customer and airline accounts with a form to add admins.
func Users(v UsersView) Node {
	return Group{
		Notice(v.Notice),
		Alert(v.Error),
		H2(Text("Customers")),
		accountTable(v.Accounts.Customers, backend.UsersCustomers, v.CSRF),
		H2(Text("Airlines")),
		accountTable(v.Accounts.Airlines, backend.UsersAirlines, v.CSRF),
		H2(Text("Add admin")),
		Form(
			Method("post"),
			Action("/users/admins"),
			v.CSRF,
			Alert(v.Admin.Error),
			accountFields(v.Admin),
			field("First name", "first_name", "text", v.Admin),
			field("Last name", "last_name", "text", v.Admin),
			Button(Type("submit"), Class("btn"), Text("Create admin")),
		),
	}
}

func accountTable(users []models.User, userType string, csrf Node) Node {
	if len(users) == 0 {
		return P(Text("None."))
	}
	rows := make([]Node, 0, len(users))
	for _, u := range users {
		name, id := u.Profile()
		rows = append(rows, Tr(
			Td(Text(u.Username)),
			Td(Text(u.Email)),
			Td(Text(name)),
			Td(If(id > 0, Form(
				Method("post"),
				Action(fmt.Sprintf("/users/%s/%d/remove", userType, id)),
				Class("inline"),
				csrf,
				Button(Type("submit"), Class("btn"), Text("Remove")),
			))),
		))
	}
	return Table(
		THead(Tr(Th(Text("Username")), Th(Text("Email")), Th(Text("Name")), Th())),
		TBody(Group(rows)),
	)
}

// Pager renders a page strip. query is appended to every link.
func Pager(p pagination.Pager, query string) Node {
	if p.Empty() {
		return nil
	}
	if query != "" && !strings.HasPrefix(query, "?") {
		query = "?" + query
	}
	link := func(l *pagination.Link) Node {
		if l == nil {
			return nil
		}
		return A(Href(l.Href+query), Text(l.Label))
	}
	pages := make([]Node, 0, len(p.Pages))
	for _, l := range p.Pages {
		if l.Active {
			pages = append(pages, Span(Class("active"), Attr("aria-current", "page"), Text(l.Label)))
			continue
		}
		pages = append(pages, A(Href(l.Href+query), Text(l.Label)))
	}
	return Nav(
		Class("pager"),
		Attr("aria-label", "Pagination"),
		link(p.First),
		link(p.Prev),
		If(p.LeadingEllipsis, Span(Text("…"))),
		Group(pages),
		If(p.TrailingEllipsis, Span(Text("…"))),
		link(p.Next),
		link(p.Last),
	)
}
