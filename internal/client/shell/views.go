package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/models"
	"github.com/atinyakov/FlightDesk/internal/registry"
	"github.com/atinyakov/FlightDesk/internal/routing"
)

const (
	pageSize    = 10
	ticketLimit = 100
)

// render produces the text of a page for viewer. Errors become part of the
// text.
func (s *Shell) render(ctx context.Context, rt routing.Route, params map[string]string, viewer identity.Identity) string {
	page := 1
	if n, err := strconv.Atoi(params["page"]); err == nil && n > 0 {
		page = n
	}
	switch rt.Content {
	case registry.ContentHome:
		return s.homeView(viewer)
	case registry.ContentFlights:
		return s.flightsView(ctx, page, routing.ListBase(rt.Pattern))
	case registry.ContentAirlines:
		return s.airlinesView(ctx, page, routing.ListBase(rt.Pattern))
	case registry.ContentTickets:
		return s.ticketsView(ctx, viewer)
	case registry.ContentUsers:
		return s.usersView(ctx, viewer)
	case registry.ContentProfile:
		return s.profileView(ctx, viewer)
	case registry.ContentLogin:
		if viewer.LoggedIn {
			return "You are already logged in.\n"
		}
		return "Use the login command to sign in.\n"
	case registry.ContentRegister:
		return "Use 'register customer' or 'register airline' to create an account.\n"
	}
	return fmt.Sprintf("The %s page is not available yet.\n", rt.Label)
}

func (s *Shell) failure(what string, err error) string {
	s.log.Debug("page load failed", zap.String("page", what), zap.Error(err))
	return s.style.err.Sprintf("Could not load %s. %s", what, describeError(err)) + "\n"
}

func (s *Shell) homeView(viewer identity.Identity) string {
	switch viewer.Type {
	case identity.Customer:
		return fmt.Sprintf("Search flights with 'go %s' and book seats with 'buy'.\n", s.links.Flights)
	case identity.Airline:
		return fmt.Sprintf("Browse the flight board with 'go %s'.\n", s.links.Flights)
	case identity.Admin:
		return fmt.Sprintf("Manage accounts with 'go %s'.\n", s.links.Users)
	}
	return fmt.Sprintf("Browse flights with 'go %s', or log in to book.\n", s.links.Flights)
}

func (s *Shell) flightsView(ctx context.Context, page int, base string) string {
	board, err := s.booking.Flights(ctx, backend.FlightFilter{ListParams: backend.ListParams{Limit: pageSize, Page: page}})
	if err != nil {
		return s.failure("flights", err)
	}
	if len(board.Rows) == 0 {
		return "No flights found.\n"
	}
	return table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tAIRLINE\tFROM\tTO\tDEPARTS\tARRIVES\tSEATS")
		for _, f := range board.Rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
				f.ID, f.AirlineName, f.Origin, f.Destination, f.Departure, f.Arrival, f.RemainingSeats)
		}
	}) + pageFooter(page, board.Pagination, base)
}

func (s *Shell) airlinesView(ctx context.Context, page int, base string) string {
	dir, err := s.booking.Airlines(ctx, "", backend.ListParams{Limit: pageSize, Page: page})
	if err != nil {
		return s.failure("airlines", err)
	}
	if len(dir.Rows) == 0 {
		return "No airlines found.\n"
	}
	return table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCOUNTRY")
		for _, a := range dir.Rows {
			fmt.Fprintf(w, "%d\t%s\t%s\n", a.ID, a.Name, a.CountryName)
		}
	}) + pageFooter(page, dir.Pagination, base)
}

func (s *Shell) ticketsView(ctx context.Context, viewer identity.Identity) string {
	rows, _, err := s.booking.Tickets(ctx, viewer, backend.ListParams{Limit: ticketLimit, Page: 1})
	if err != nil {
		return s.failure("your tickets", err)
	}
	if len(rows) == 0 {
		return "You have no tickets yet.\n"
	}
	return table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "TICKET\tFLIGHT\tROUTE\tDEPARTS\tSEATS")
		for _, t := range rows {
			fmt.Fprintf(w, "%d\t%d\t%s → %s\t%s\t%d\n",
				t.ID, t.Flight.ID, t.Origin.Name, t.Destination.Name, t.Flight.Departure, t.SeatCount)
		}
	})
}

func (s *Shell) usersView(ctx context.Context, viewer identity.Identity) string {
	accounts, err := s.booking.Accounts(ctx, viewer)
	if err != nil {
		return s.failure("accounts", err)
	}
	return userTable("Customers", accounts.Customers) + userTable("Airlines", accounts.Airlines)
}

func userTable(title string, users []models.User) string {
	if len(users) == 0 {
		return title + ": none.\n"
	}
	return title + ":\n" + table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tACTIVE")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.IsActive)
		}
	})
}

func (s *Shell) profileView(ctx context.Context, viewer identity.Identity) string {
	p, err := s.accounts.Profile(ctx, viewer)
	if err != nil {
		return s.failure("your profile", err)
	}
	var b strings.Builder
	switch {
	case p.Airline != nil:
		fmt.Fprintf(&b, "Name:    %s\nCountry: %d\n", p.Airline.Name, p.Airline.Country)
	case p.Customer != nil:
		c := p.Customer
		fmt.Fprintf(&b, "Name:    %s %s\nAddress: %s\nPhone:   %s\n", c.FirstName, c.LastName, c.Address, c.Phone)
	}
	return b.String()
}

func table(fill func(w *tabwriter.Writer)) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fill(w)
	_ = w.Flush()
	return b.String()
}

func pageFooter(page int, p models.Pagination, base string) string {
	pages := p.Pages()
	if pages <= 1 {
		return ""
	}
	footer := fmt.Sprintf("Page %d of %d.", page, pages)
	if page < pages {
		footer += fmt.Sprintf(" Next: go %s/%d/", base, page+1)
	}
	return footer + "\n"
}
