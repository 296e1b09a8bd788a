package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/models"
)

// fakeBooking serves a small fixed data set.
type fakeBooking struct {
	flights   map[int64]models.Flight
	airlines  map[int64]models.Airline
	countries map[int64]models.Country
	tickets   []models.Ticket
	users     map[string][]models.User

	flightErr    error
	airlineCalls atomic.Int32
	countryCalls atomic.Int32

	mu     sync.Mutex
	filter backend.FlightFilter
	bought []models.TicketOrder
	cancel []int64
}

func newFakeBooking() *fakeBooking {
	return &fakeBooking{
		flights: map[int64]models.Flight{
			10: {ID: 10, Airline: 1, OriginCountry: 1, DestinationCountry: 2, RemainingSeats: 5},
			11: {ID: 11, Airline: 1, OriginCountry: 2, DestinationCountry: 1, RemainingSeats: 0},
			12: {ID: 12, Airline: 2, OriginCountry: 1, DestinationCountry: 3, RemainingSeats: 9},
		},
		airlines: map[int64]models.Airline{
			1: {ID: 1, Name: "El Al", Country: 1},
			2: {ID: 2, Name: "Lufthansa", Country: 3},
		},
		countries: map[int64]models.Country{
			1: {ID: 1, Name: "Israel", Symbol: "IL"},
			2: {ID: 2, Name: "Greece", Symbol: "GR"},
			3: {ID: 3, Name: "Germany", Symbol: "DE"},
		},
		tickets: []models.Ticket{
			{ID: 100, Flight: 10, Customer: 4, SeatCount: 2},
			{ID: 101, Flight: 12, Customer: 4, SeatCount: 1},
		},
		users: map[string][]models.User{
			backend.UsersCustomers: {{ID: 5, Username: "dana"}},
			backend.UsersAirlines:  {{ID: 6, Username: "elal"}},
		},
	}
}

func (f *fakeBooking) Flights(_ context.Context, filter backend.FlightFilter) (models.Page[models.Flight], error) {
	f.mu.Lock()
	f.filter = filter
	f.mu.Unlock()
	return models.Page[models.Flight]{
		Data:       []models.Flight{f.flights[10], f.flights[11], f.flights[12]},
		Pagination: models.Pagination{Page: 1, Total: 3, Limit: 10},
	}, nil
}

func (f *fakeBooking) Flight(_ context.Context, id int64) (models.Flight, error) {
	if f.flightErr != nil {
		return models.Flight{}, f.flightErr
	}
	fl, ok := f.flights[id]
	if !ok {
		return models.Flight{}, backend.ErrNotFound
	}
	return fl, nil
}

func (f *fakeBooking) Airlines(context.Context, string, backend.ListParams) (models.Page[models.Airline], error) {
	return models.Page[models.Airline]{
		Data:       []models.Airline{f.airlines[1], f.airlines[2]},
		Pagination: models.Pagination{Page: 1, Total: 2, Limit: 10},
	}, nil
}

func (f *fakeBooking) Airline(_ context.Context, id int64) (models.Airline, error) {
	f.airlineCalls.Add(1)
	return f.airlines[id], nil
}

func (f *fakeBooking) Countries(context.Context, backend.ListParams) (models.Page[models.Country], error) {
	return models.Page[models.Country]{
		Data: []models.Country{f.countries[1], f.countries[2], f.countries[3]},
	}, nil
}

func (f *fakeBooking) Country(_ context.Context, id int64) (models.Country, error) {
	f.countryCalls.Add(1)
	c, ok := f.countries[id]
	if !ok {
		return models.Country{}, fmt.Errorf("country %d: %w", id, backend.ErrNotFound)
	}
	return c, nil
}

func (f *fakeBooking) Tickets(context.Context, backend.ListParams) (models.Page[models.Ticket], error) {
	return models.Page[models.Ticket]{Data: f.tickets, Pagination: models.Pagination{Page: 1, Total: 2, Limit: 10}}, nil
}

func (f *fakeBooking) Users(_ context.Context, userType string) ([]models.User, error) {
	return f.users[userType], nil
}

func (f *fakeBooking) BuyTicket(_ context.Context, order models.TicketOrder) (models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bought = append(f.bought, order)
	return models.Ticket{ID: 200, Flight: order.FlightID, SeatCount: order.SeatCount}, nil
}

func (f *fakeBooking) DeleteTicket(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancel = append(f.cancel, id)
	return nil
}

var (
	customerViewer = ident(identity.Customer, 4, "dana")
	adminViewer    = ident(identity.Admin, 1, "root")
)

func TestBooking_Flights(t *testing.T) {
	api := newFakeBooking()
	svc := NewBookingService(api)

	filter := backend.FlightFilter{ListParams: backend.ListParams{Limit: 10, Page: 1}, Origin: 1}
	board, err := svc.Flights(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, filter, api.filter)
	require.Len(t, board.Rows, 3)
	assert.Equal(t, "El Al", board.Rows[0].AirlineName)
	assert.Equal(t, "Israel", board.Rows[0].Origin)
	assert.Equal(t, "Greece", board.Rows[0].Destination)
	assert.Equal(t, "Lufthansa", board.Rows[2].AirlineName)
	assert.Equal(t, "Germany", board.Rows[2].Destination)
	assert.Len(t, board.Countries, 3)
	assert.Equal(t, 1, board.Pagination.Pages())
	// One lookup per distinct airline.
	assert.EqualValues(t, 2, api.airlineCalls.Load())
}

func TestBooking_Airlines(t *testing.T) {
	dir, err := NewBookingService(newFakeBooking()).Airlines(context.Background(), "", backend.ListParams{})
	require.NoError(t, err)
	require.Len(t, dir.Rows, 2)
	assert.Equal(t, "Israel", dir.Rows[0].CountryName)
	assert.Equal(t, "Germany", dir.Rows[1].CountryName)
}

func TestBooking_Tickets(t *testing.T) {
	api := newFakeBooking()
	svc := NewBookingService(api)

	rows, pg, err := svc.Tickets(context.Background(), customerViewer, backend.ListParams{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(100), rows[0].ID)
	assert.Equal(t, int64(10), rows[0].Flight.ID)
	assert.Equal(t, "Israel", rows[0].Origin.Name)
	assert.Equal(t, "Greece", rows[0].Destination.Name)
	assert.Equal(t, "Germany", rows[1].Destination.Name)
	assert.Equal(t, 2, pg.Total)
	assert.EqualValues(t, 4, api.countryCalls.Load())
}

func TestBooking_TicketsErrors(t *testing.T) {
	svc := NewBookingService(newFakeBooking())
	_, _, err := svc.Tickets(context.Background(), adminViewer, backend.ListParams{})
	assert.True(t, errors.Is(err, ErrNotAllowed))

	_, _, err = svc.Tickets(context.Background(), identity.Anonymous(), backend.ListParams{})
	assert.True(t, errors.Is(err, ErrNotAllowed))

	api := newFakeBooking()
	api.flightErr = errors.New("flight service down")
	_, _, err = NewBookingService(api).Tickets(context.Background(), customerViewer, backend.ListParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flight service down")

	api = newFakeBooking()
	api.flights[12] = models.Flight{ID: 12, Airline: 2, OriginCountry: 1, DestinationCountry: 99}
	_, _, err = NewBookingService(api).Tickets(context.Background(), customerViewer, backend.ListParams{})
	assert.True(t, errors.Is(err, backend.ErrNotFound))
}

func TestBooking_BuyAndCancel(t *testing.T) {
	api := newFakeBooking()
	svc := NewBookingService(api)
	ctx := context.Background()

	ticket, err := svc.Buy(ctx, customerViewer, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(200), ticket.ID)
	assert.Equal(t, []models.TicketOrder{{FlightID: 10, SeatCount: 2}}, api.bought)

	_, err = svc.Buy(ctx, customerViewer, 10, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.Buy(ctx, identity.Anonymous(), 10, 1)
	assert.True(t, errors.Is(err, ErrNotAllowed))

	require.NoError(t, svc.Cancel(ctx, customerViewer, 100))
	assert.Equal(t, []int64{100}, api.cancel)
	assert.True(t, errors.Is(svc.Cancel(ctx, adminViewer, 100), ErrNotAllowed))
}

func TestBooking_Accounts(t *testing.T) {
	svc := NewBookingService(newFakeBooking())

	acc, err := svc.Accounts(context.Background(), adminViewer)
	require.NoError(t, err)
	require.Len(t, acc.Customers, 1)
	require.Len(t, acc.Airlines, 1)
	assert.Equal(t, "dana", acc.Customers[0].Username)
	assert.Equal(t, "elal", acc.Airlines[0].Username)

	_, err = svc.Accounts(context.Background(), customerViewer)
	assert.True(t, errors.Is(err, ErrNotAllowed))
}
