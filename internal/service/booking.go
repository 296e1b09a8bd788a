package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/models"
)

// fetchLimit bounds concurrent detail requests for one page.
const fetchLimit = 4

// ErrNotAllowed is returned when the viewer's role cannot perform an action.
var ErrNotAllowed = errors.New("not allowed for this account")

// BookingBackend defines the backend operations required by the booking
// service.
type BookingBackend interface {
	Flights(ctx context.Context, f backend.FlightFilter) (models.Page[models.Flight], error)
	Flight(ctx context.Context, id int64) (models.Flight, error)
	Airlines(ctx context.Context, name string, p backend.ListParams) (models.Page[models.Airline], error)
	Airline(ctx context.Context, id int64) (models.Airline, error)
	Countries(ctx context.Context, p backend.ListParams) (models.Page[models.Country], error)
	Country(ctx context.Context, id int64) (models.Country, error)
	Tickets(ctx context.Context, p backend.ListParams) (models.Page[models.Ticket], error)
	Users(ctx context.Context, userType string) ([]models.User, error)
	BuyTicket(ctx context.Context, order models.TicketOrder) (models.Ticket, error)
	DeleteTicket(ctx context.Context, id int64) error
}

// FlightRow is a flight with its names resolved for display.
type FlightRow struct {
	models.Flight
	AirlineName string
	Origin      string
	Destination string
}

// FlightBoard is one page of flights.
type FlightBoard struct {
	Rows       []FlightRow
	Pagination models.Pagination
	// Countries is the full country list, for the filter form.
	Countries []models.Country
}

// AirlineRow is an airline with its country name resolved.
type AirlineRow struct {
	models.Airline
	CountryName string
}

// AirlineDirectory is one page of airlines.
type AirlineDirectory struct {
	Rows       []AirlineRow
	Pagination models.Pagination
}

// TicketRow is a ticket with its flight and countries.
type TicketRow struct {
	models.Ticket
	Flight      models.Flight
	Origin      models.Country
	Destination models.Country
}

// Accounts lists the customer and airline accounts for admins.
type Accounts struct {
	Customers []models.User
	Airlines  []models.User
}

// BookingService reads flights, airlines and tickets and places orders.
type BookingService struct {
	api BookingBackend
}

// NewBookingService constructs a BookingService.
func NewBookingService(api BookingBackend) *BookingService {
	return &BookingService{api: api}
}

// countryLimit is large enough to fetch every country in one page.
const countryLimit = 200

func (s *BookingService) countries(ctx context.Context) ([]models.Country, map[int64]string, error) {
	page, err := s.api.Countries(ctx, backend.ListParams{Limit: countryLimit, Page: 1})
	if err != nil {
		return nil, nil, fmt.Errorf("load countries: %w", err)
	}
	names := make(map[int64]string, len(page.Data))
	for _, c := range page.Data {
		names[c.ID] = c.Name
	}
	return page.Data, names, nil
}

// Countries returns every country, for forms that pick one.
func (s *BookingService) Countries(ctx context.Context) ([]models.Country, error) {
	list, _, err := s.countries(ctx)
	return list, err
}

// Flights returns the flights matching f with airline and country names.
// Countries and flights load concurrently; airline names are fetched once
// per distinct airline on the page.
func (s *BookingService) Flights(ctx context.Context, f backend.FlightFilter) (FlightBoard, error) {
	var (
		board     FlightBoard
		page      models.Page[models.Flight]
		countries map[int64]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		board.Countries, countries, err = s.countries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = s.api.Flights(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return FlightBoard{}, err
	}

	airlines, err := s.airlineNames(ctx, page.Data)
	if err != nil {
		return FlightBoard{}, err
	}

	board.Pagination = page.Pagination
	board.Rows = make([]FlightRow, 0, len(page.Data))
	for _, fl := range page.Data {
		board.Rows = append(board.Rows, FlightRow{
			Flight:      fl,
			AirlineName: airlines[fl.Airline],
			Origin:      countries[fl.OriginCountry],
			Destination: countries[fl.DestinationCountry],
		})
	}
	return board, nil
}

func (s *BookingService) airlineNames(ctx context.Context, flights []models.Flight) (map[int64]string, error) {
	var (
		mu    sync.Mutex
		names = make(map[int64]string)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	seen := make(map[int64]bool)
	for _, fl := range flights {
		if seen[fl.Airline] {
			continue
		}
		seen[fl.Airline] = true
		id := fl.Airline
		g.Go(func() error {
			a, err := s.api.Airline(gctx, id)
			if err != nil {
				return fmt.Errorf("load airline %d: %w", id, err)
			}
			mu.Lock()
			names[id] = a.Name
			mu.Unlock()
			return nil
		})
	}
	return names, g.Wait()
}

// Airlines returns the airlines whose name contains name.
func (s *BookingService) Airlines(ctx context.Context, name string, p backend.ListParams) (AirlineDirectory, error) {
	var (
		page      models.Page[models.Airline]
		countries map[int64]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		_, countries, err = s.countries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = s.api.Airlines(gctx, name, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return AirlineDirectory{}, err
	}

	dir := AirlineDirectory{Pagination: page.Pagination, Rows: make([]AirlineRow, 0, len(page.Data))}
	for _, a := range page.Data {
		dir.Rows = append(dir.Rows, AirlineRow{Airline: a, CountryName: countries[a.Country]})
	}
	return dir, nil
}

// Tickets returns the viewer's tickets with flight and country details. For
// each ticket the flight is fetched, then both of its countries at once.
func (s *BookingService) Tickets(ctx context.Context, viewer identity.Identity, p backend.ListParams) ([]TicketRow, models.Pagination, error) {
	if viewer.Type != identity.Customer {
		return nil, models.Pagination{}, fmt.Errorf("tickets: %w", ErrNotAllowed)
	}
	page, err := s.api.Tickets(ctx, p)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("load tickets: %w", err)
	}
	rows := make([]TicketRow, len(page.Data))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, t := range page.Data {
		g.Go(func() error {
			row, err := s.ticketRow(gctx, t)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, models.Pagination{}, err
	}
	return rows, page.Pagination, nil
}

func (s *BookingService) ticketRow(ctx context.Context, t models.Ticket) (TicketRow, error) {
	fl, err := s.api.Flight(ctx, t.Flight)
	if err != nil {
		return TicketRow{}, fmt.Errorf("load flight %d: %w", t.Flight, err)
	}
	row := TicketRow{Ticket: t, Flight: fl}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		row.Origin, err = s.api.Country(gctx, fl.OriginCountry)
		return err
	})
	g.Go(func() error {
		var err error
		row.Destination, err = s.api.Country(gctx, fl.DestinationCountry)
		return err
	})
	if err := g.Wait(); err != nil {
		return TicketRow{}, fmt.Errorf("load countries of flight %d: %w", fl.ID, err)
	}
	return row, nil
}

// Buy orders seats on a flight for the viewer.
func (s *BookingService) Buy(ctx context.Context, viewer identity.Identity, flightID int64, seats int) (models.Ticket, error) {
	if viewer.Type != identity.Customer {
		return models.Ticket{}, fmt.Errorf("buy ticket: %w", ErrNotAllowed)
	}
	if flightID <= 0 || seats <= 0 {
		return models.Ticket{}, &InputError{Fields: map[string]string{"seat_count": "Please choose at least one seat."}}
	}
	return s.api.BuyTicket(ctx, models.TicketOrder{FlightID: flightID, SeatCount: seats})
}

// Cancel cancels one of the viewer's tickets.
func (s *BookingService) Cancel(ctx context.Context, viewer identity.Identity, ticketID int64) error {
	if viewer.Type != identity.Customer {
		return fmt.Errorf("cancel ticket: %w", ErrNotAllowed)
	}
	return s.api.DeleteTicket(ctx, ticketID)
}

// Accounts lists customer and airline accounts. Admin only.
func (s *BookingService) Accounts(ctx context.Context, viewer identity.Identity) (Accounts, error) {
	if viewer.Type != identity.Admin {
		return Accounts{}, fmt.Errorf("list accounts: %w", ErrNotAllowed)
	}
	var out Accounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Customers, err = s.api.Users(gctx, backend.UsersCustomers)
		return err
	})
	g.Go(func() error {
		var err error
		out.Airlines, err = s.api.Users(gctx, backend.UsersAirlines)
		return err
	})
	if err := g.Wait(); err != nil {
		return Accounts{}, err
	}
	return out, nil
}
