package ui

import (
	"fmt"
	"strings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/navigation"
	"github.com/atinyakov/FlightDesk/internal/registry"
)

// Chrome is everything around a page body: title, navigation bar and the
// viewer's welcome bar.
type Chrome struct {
	Title string
	// Path is the request path, used to mark the active link.
	Path   string
	Nav    []navigation.Item
	Viewer identity.Identity
	// Stale marks a viewer that could not be confirmed with the backend.
	Stale bool
	// CSRF is the hidden token field for the logout form.
	CSRF Node
	// Links locate the home, login, logout and profile pages.
	Links registry.Links
}

// Layout wraps body in the site chrome.
func Layout(c Chrome, body ...Node) Node {
	c.Links = c.Links.OrDefault()
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(Text(c.Title+" | FlightDesk")),
				Link(Rel("icon"), Href("data:,")),
				StyleEl(Raw(stylesheet)),
			),
			Body(
				Header(
					Class("navbar"),
					A(Href(c.Links.Home), Class("brand"), Text("FlightDesk")),
					navBar(c.Nav, c.Path),
					welcomeBar(c),
				),
				Main(
					Class("content"),
					H1(Class("page-title"), Text(c.Title)),
					Group(body),
				),
				Script(Raw("document.addEventListener('click',function(e){document.querySelectorAll('details.dropdown[open]').forEach(function(d){if(!d.contains(e.target)){d.removeAttribute('open');}});});")),
			),
		),
	)
}

func navBar(items []navigation.Item, path string) Node {
	nodes := make([]Node, 0, len(items))
	for _, it := range items {
		switch it := it.(type) {
		case navigation.Link:
			nodes = append(nodes, navLink(it, path))
		case navigation.Dropdown:
			links := make([]Node, 0, len(it.Items))
			for _, l := range it.Items {
				links = append(links, Li(navLink(l, path)))
			}
			nodes = append(nodes, Details(
				Class("dropdown"),
				Summary(Text(it.Label)),
				Ul(Group(links)),
			))
		}
	}
	return Nav(Class("nav"), Group(nodes))
}

func navLink(l navigation.Link, path string) Node {
	className := "nav-link"
	if sameSection(l.Href, path) {
		className += " active"
	}
	return A(Href(l.Href), Class(className), Text(l.Label))
}

// sameSection compares the first path segment, so /flights/1/ is active on
// /flights/3.
func sameSection(href, path string) bool {
	a, _, _ := strings.Cut(strings.Trim(href, "/"), "/")
	b, _, _ := strings.Cut(strings.Trim(path, "/"), "/")
	return a != "" && a == b
}

func welcomeBar(c Chrome) Node {
	greeting := "Welcome! Please login to continue."
	if c.Viewer.LoggedIn {
		greeting = fmt.Sprintf("Welcome, %s!", c.Viewer.Name())
	}

	var action Node
	if c.Viewer.LoggedIn {
		action = Form(
			Method("post"),
			Action(c.Links.Logout),
			Class("inline"),
			c.CSRF,
			Button(Type("submit"), Class("btn"), Text("Logout")),
		)
	} else {
		action = A(Href(c.Links.Login), Class("btn"), Text("Login"))
	}

	hasProfile := c.Viewer.Type == identity.Airline || c.Viewer.Type == identity.Customer
	return Div(
		Class("welcome-bar"),
		Span(Text(greeting)),
		If(c.Stale, Span(Class("offline"), Title("The booking service could not be reached"), Text("(offline)"))),
		If(hasProfile, A(Href(c.Links.Profile), Class("btn"), Text("Edit Profile"))),
		action,
	)
}
