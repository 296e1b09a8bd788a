package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/FlightDesk/internal/cache"
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/models"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newFakeClient(t *testing.T, fn roundTripperFunc) *Client {
	t.Helper()
	c, err := New("http://backend.test", WithHTTPClient(&http.Client{Transport: fn, Timeout: time.Second}))
	require.NoError(t, err)
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// fakeBackend emulates the login flow of the booking backend.
type fakeBackend struct {
	mu       sync.Mutex
	sessions map[string]identity.Identity
}

func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	fb := &fakeBackend{sessions: map[string]identity.Identity{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/csrf/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: "tok123", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/login/", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(CSRFCookie); err != nil || ck.Value != r.Header.Get("X-CSRFToken") {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"CSRF Failed"}`))
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "Secret123" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		id, name := int64(9), "Dana Scully"
		fb.mu.Lock()
		fb.sessions["s-"+body["username"]] = identity.Identity{
			LoggedIn: true, Type: identity.Customer, Username: body["username"], EntityID: &id, EntityName: &name,
		}
		fb.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "s-" + body["username"], Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/logout/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/whoami/", func(w http.ResponseWriter, r *http.Request) {
		ident := identity.Anonymous()
		if ck, err := r.Cookie(SessionCookie); err == nil {
			fb.mu.Lock()
			if s, ok := fb.sessions[ck.Value]; ok {
				ident = s
			}
			fb.mu.Unlock()
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": ident})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "backend", "ftp://host", "http://"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}
	c, err := New("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.baseURL)
}

func TestClient_LoginWhoamiLogout(t *testing.T) {
	srv := newFakeBackend(t)
	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := c.Whoami(ctx)
	require.NoError(t, err)
	assert.True(t, id.Equal(identity.Anonymous()))

	require.NoError(t, c.Login(ctx, "dana", "Secret123"))
	assert.Equal(t, "tok123", c.Cookie(CSRFCookie))
	assert.Equal(t, "s-dana", c.Cookie(SessionCookie))

	id, err = c.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.Customer, id.Type)
	assert.Equal(t, "Dana Scully", id.Name())

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Cookie(SessionCookie))

	id, err = c.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.Anon, id.Type)
}

func TestClient_LoginRejected(t *testing.T) {
	srv := newFakeBackend(t)
	c, err := New(srv.URL)
	require.NoError(t, err)

	err = c.Login(context.Background(), "dana", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, []string{"Invalid credentials"}, Messages(err))
}

func TestClient_WithSessionCookies(t *testing.T) {
	srv := newFakeBackend(t)
	root, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, root.Login(ctx, "fox", "Secret123"))

	browser := root.WithSessionCookies([]*http.Cookie{
		{Name: SessionCookie, Value: "s-fox"},
		{Name: "fd_csrf", Value: "ignored"},
	})
	id, err := browser.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fox", id.Username)
	assert.Empty(t, browser.Cookie("fd_csrf"))

	other := root.WithSessionCookies(nil)
	id, err = other.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.Anon, id.Type)

	require.NoError(t, browser.Logout(ctx))
	issued := browser.Issued()
	require.NotEmpty(t, issued)
	var names []string
	for _, ck := range issued {
		names = append(names, ck.Name)
	}
	assert.Contains(t, names, CSRFCookie)
	assert.Contains(t, names, SessionCookie)
	// The root session is untouched.
	assert.Equal(t, "s-fox", root.Cookie(SessionCookie))
}

func TestClient_ErrorBodies(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		messages []string
	}{
		{"error string", http.StatusNotFound, `{"error":"Flight not found."}`, ErrNotFound, []string{"Flight not found."}},
		{"errors object", http.StatusBadRequest, `{"errors":{"username":["Taken."],"email":"Invalid."}}`, nil, []string{"Invalid.", "Taken."}},
		{"nested", http.StatusConflict, `{"errors":{"user":{"password":["Too short.","Too common."]}}}`, nil, []string{"Too short.", "Too common."}},
		{"plain text", http.StatusInternalServerError, "boom\n", nil, []string{"boom"}},
		{"empty", http.StatusUnauthorized, "", ErrUnauthorized, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeClient(t, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, tt.body), nil
			})
			_, err := c.Flight(context.Background(), 1)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.messages, apiErr.Messages)
			if tt.sentinel != nil {
				assert.True(t, errors.Is(err, tt.sentinel))
			}
		})
	}
}

func TestClient_TransportAndDecodeErrors(t *testing.T) {
	c := newFakeClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("network down")
	})
	_, err := c.Whoami(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")

	c = newFakeClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, "not-json"), nil
	})
	_, err = c.Whoami(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode GET /api/whoami/")
}

func TestClient_WhoamiNormalizes(t *testing.T) {
	c := newFakeClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":{"logged_in":true,"type":"airline","username":"el"}}`), nil
	})
	id, err := c.Whoami(context.Background())
	require.NoError(t, err)
	assert.True(t, id.Equal(identity.Anonymous()))
}

func TestClient_FlightsQuery(t *testing.T) {
	var got string
	c := newFakeClient(t, func(req *http.Request) (*http.Response, error) {
		got = req.URL.Path + "?" + req.URL.RawQuery
		return jsonResponse(http.StatusOK, `{"data":[{"id":5,"airline":2,"remaining_seats":40}],"pagination":{"page":2,"total":7,"limit":10}}`), nil
	})

	page, err := c.Flights(context.Background(), FlightFilter{
		ListParams: ListParams{Limit: 10, Page: 2},
		Origin:     3,
		Date:       "2024-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/flights/?date=2024-05-01&limit=10&origin_country=3&page=2", got)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(5), page.Data[0].ID)
	assert.Equal(t, 40, page.Data[0].RemainingSeats)
	assert.Equal(t, models.Pagination{Page: 2, Total: 7, Limit: 10}, page.Pagination)
}

func TestClient_MutationsSendCSRF(t *testing.T) {
	var calls []string
	c := newFakeClient(t, func(req *http.Request) (*http.Response, error) {
		calls = append(calls, req.Method+" "+req.URL.Path+" "+req.Header.Get("X-CSRFToken"))
		if req.URL.Path == "/api/csrf/" {
			resp := jsonResponse(http.StatusNoContent, "")
			resp.Header.Set("Set-Cookie", CSRFCookie+"=abc; Path=/")
			return resp, nil
		}
		if req.URL.Path == "/api/tickets/" {
			return jsonResponse(http.StatusCreated, `{"data":{"id":11,"flight":5,"customer":9,"seat_count":2}}`), nil
		}
		return jsonResponse(http.StatusNoContent, ""), nil
	})
	ctx := context.Background()

	ticket, err := c.BuyTicket(ctx, models.TicketOrder{FlightID: 5, SeatCount: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(11), ticket.ID)
	require.NoError(t, c.DeleteTicket(ctx, 11))

	assert.Equal(t, []string{
		"GET /api/csrf/ ",
		"POST /api/tickets/ abc",
		"DELETE /api/ticket/11/ abc",
	}, calls)
}

func TestClient_Users(t *testing.T) {
	c := newFakeClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/users/airline/", req.URL.Path)
		return jsonResponse(http.StatusOK, `{"data":[{"id":3,"username":"el","airline":{"id":7,"name":"El Al"}}]}`), nil
	})
	users, err := c.Users(context.Background(), UsersAirlines)
	require.NoError(t, err)
	require.Len(t, users, 1)
	name, id := users[0].Profile()
	assert.Equal(t, "El Al", name)
	assert.Equal(t, int64(7), id)

	_, err = c.Users(context.Background(), "pilot")
	assert.Error(t, err)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memCache) Set(_ context.Context, key string, val []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
}

func TestClient_CountriesCached(t *testing.T) {
	hits := 0
	hc := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		hits++
		return jsonResponse(http.StatusOK, `{"data":[{"id":1,"name":"Israel","symbol":"IL"}],"pagination":{"page":1,"total":1,"limit":200}}`), nil
	})}
	c, err := New("http://backend.test", WithHTTPClient(hc), WithCache(&memCache{data: map[string][]byte{}}, time.Minute))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		page, err := c.Countries(context.Background(), ListParams{Limit: 200})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Israel", page.Data[0].Name)
	}
	assert.Equal(t, 1, hits)

	// Per-request clients share the cache.
	_, err = c.WithSessionCookies(nil).Countries(context.Background(), ListParams{Limit: 200})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestClient_UnreachableRedisRunsUncached(t *testing.T) {
	rc, err := cache.NewRedis("127.0.0.1:1", "", 0)
	require.Error(t, err)

	hits := 0
	hc := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		hits++
		return jsonResponse(http.StatusOK, `{"data":[{"id":1,"name":"Israel","symbol":"IL"}],"pagination":{"page":1,"total":1,"limit":200}}`), nil
	})}
	c, err := New("http://backend.test", WithHTTPClient(hc), WithCache(rc, time.Minute))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		page, err := c.Countries(context.Background(), ListParams{Limit: 200})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
	}
	assert.Equal(t, 2, hits)
	assert.NoError(t, rc.Close())
}
