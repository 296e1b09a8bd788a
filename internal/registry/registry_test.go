package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/FlightDesk/internal/identity"
)

func labels(r *Registry) []string {
	var out []string
	for _, e := range r.Entries() {
		out = append(out, e.EntryLabel())
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr string
	}{
		{
			name:    "empty label",
			entries: []Entry{PageEntry{Path: "/", Content: "home"}},
			wantErr: "empty label",
		},
		{
			name: "duplicate label",
			entries: []Entry{
				PageEntry{Label: "Home", Path: "/", Content: "home"},
				PageEntry{Label: "Home", Path: "/x/", Content: "x"},
			},
			wantErr: "duplicate entry",
		},
		{
			name:    "relative path",
			entries: []Entry{PageEntry{Label: "Home", Path: "home", Content: "home"}},
			wantErr: "must start with /",
		},
		{
			name:    "missing content",
			entries: []Entry{PageEntry{Label: "Home", Path: "/"}},
			wantErr: "no content",
		},
		{
			name:    "empty group",
			entries: []Entry{Group{Name: "Auth"}},
			wantErr: "has no pages",
		},
		{
			name: "duplicate child",
			entries: []Entry{Group{Name: "Auth", Children: []PageEntry{
				{Label: "Login", Path: "/login/", Content: "login"},
				{Label: "Login", Path: "/login2/", Content: "login"},
			}}},
			wantErr: "duplicate page",
		},
		{
			name: "unknown restriction",
			entries: []Entry{PageEntry{
				Label: "Pilots", Path: "/p/", Content: "p", RestrictedTo: []identity.Type{"pilot"},
			}},
			wantErr: "unknown type",
		},
		{
			name: "restricted to nobody",
			entries: []Entry{PageEntry{
				Label: "Nobody", Path: "/n/", Content: "n", RestrictedTo: []identity.Type{},
			}},
			wantErr: "restricted to nobody",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_PreservesOrderAndIsImmutable(t *testing.T) {
	restricted := []identity.Type{identity.Customer}
	r, err := New(
		PageEntry{Label: "B", Path: "/b/", Content: "b", RestrictedTo: restricted},
		PageEntry{Label: "A", Path: "/a/", Content: "a"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, labels(r))

	restricted[0] = identity.Admin
	entries := r.Entries()
	entries[0] = PageEntry{Label: "Z"}

	b := r.Entries()[0].(PageEntry)
	assert.Equal(t, "B", b.Label)
	assert.Equal(t, []identity.Type{identity.Customer}, b.RestrictedTo)
}

func TestPageEntry_Helpers(t *testing.T) {
	p := PageEntry{Label: "Flights", Path: "/flights/:page", Link: "/flights/1/"}
	assert.Equal(t, "/flights/1/", p.Href())
	assert.True(t, p.ShowInNav())
	assert.True(t, p.Allows(identity.Anon))

	p = PageEntry{Label: "Tickets", Path: "/tickets/", NavHidden: true, RestrictedTo: []identity.Type{identity.Customer}}
	assert.Equal(t, "/tickets/", p.Href())
	assert.False(t, p.ShowInNav())
	assert.True(t, p.Allows(identity.Customer))
	assert.False(t, p.Allows(identity.Airline))
}

func TestPages_FlattensGroups(t *testing.T) {
	var got []string
	for _, p := range Default().Pages() {
		got = append(got, p.Label)
	}
	assert.Equal(t, []string{"Home", "Flights", "Airlines", "Tickets", "Users", "Profile", "Login", "Register"}, got)
}

func TestParse(t *testing.T) {
	doc := `
Home:
  path: /
  content: home
  show_in_nav: false
Tickets:
  path: /tickets/
  content: tickets
  restricted_to: customer
Auth:
  restricted_to: [anon]
  Login:
    path: /login/
    content: login
  Register:
    path: /register/
    content: register
    restricted_to: [anon, admin]
`
	r, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, []string{"Home", "Tickets", "Auth"}, labels(r))

	entries := r.Entries()
	home := entries[0].(PageEntry)
	assert.False(t, home.ShowInNav())
	assert.Nil(t, home.RestrictedTo)

	tickets := entries[1].(PageEntry)
	assert.Equal(t, []identity.Type{identity.Customer}, tickets.RestrictedTo)

	auth, ok := entries[2].(Group)
	require.True(t, ok)
	assert.Equal(t, []identity.Type{identity.Anon}, auth.RestrictedTo)
	require.Len(t, auth.Children, 2)
	assert.Equal(t, "Login", auth.Children[0].Label)
	assert.Equal(t, "Register", auth.Children[1].Label)
	assert.Equal(t, []identity.Type{identity.Anon, identity.Admin}, auth.Children[1].RestrictedTo)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "::: ["},
		{"empty", ""},
		{"top level list", "- a\n- b\n"},
		{"scalar entry", "Home: /\n"},
		{"mixed group", "Auth:\n  Login: {path: /login/, content: login}\n  note: hello\n"},
		{"nested group", "Auth:\n  More:\n    Login: {path: /login/, content: login}\n"},
		{"unknown key", "Home: {path: /, content: home, colour: red}\n"},
		{"bad type", "Home: {path: /, content: home, restricted_to: [pilot]}\n"},
		{"bad show_in_nav", "Home: {path: /, content: home, show_in_nav: maybe}\n"},
		{"empty group", "Auth: {restricted_to: anon}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	r, err := Load(filepath.Join("..", "..", "configs", "pages.yaml"))
	require.NoError(t, err)
	assert.Equal(t, labels(Default()), labels(r))
	assert.Equal(t, Default().Pages(), r.Pages())
}

func TestPathFor(t *testing.T) {
	r := MustNew(
		PageEntry{Label: "Board", Path: "/board/:page", Content: ContentFlights},
		PageEntry{Label: "Carriers", Path: "/carriers/:page", Link: "/carriers/2/", Content: ContentAirlines},
		Group{Name: "Account", Children: []PageEntry{
			{Label: "Sign in", Path: "/signin/", Content: ContentLogin},
			{Label: "Sign in again", Path: "/again/", Content: ContentLogin},
		}},
	)

	tests := []struct {
		content string
		want    string
		found   bool
	}{
		{ContentFlights, "/board/1", true},
		{ContentAirlines, "/carriers/2/", true},
		{ContentLogin, "/signin/", true},
		{ContentTickets, "", false},
	}
	for _, tt := range tests {
		got, ok := r.PathFor(tt.content)
		assert.Equal(t, tt.found, ok, tt.content)
		assert.Equal(t, tt.want, got, tt.content)
	}

	p, ok := r.Page(ContentLogin)
	require.True(t, ok)
	assert.Equal(t, "Sign in", p.Label)
}

func TestLinks(t *testing.T) {
	assert.Equal(t, DefaultLinks(), Default().Links())

	moved := MustNew(
		PageEntry{Label: "Home", Path: "/start/", Content: ContentHome},
		PageEntry{Label: "Board", Path: "/board/:page", Content: ContentFlights},
		Group{Name: "Account", Children: []PageEntry{
			{Label: "Sign in", Path: "/signin/", Content: ContentLogin},
		}},
	)
	l := moved.Links()
	assert.Equal(t, "/start/", l.Home)
	assert.Equal(t, "/board/1", l.Flights)
	assert.Equal(t, "/signin/", l.Login)
	assert.Equal(t, "/register/", l.Register, "missing pages keep the built-in URL")
	assert.Equal(t, "/logout/", l.Logout)

	assert.Equal(t, DefaultLinks(), Links{}.OrDefault())
	assert.Equal(t, "/signin/", Links{Login: "/signin/"}.OrDefault().Login)
}
