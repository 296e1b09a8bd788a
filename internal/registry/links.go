package registry

// Links are the URLs the site chrome, forms and redirects point at. They
// come from the page table, so moving a page moves every link to it.
type Links struct {
	Home     string
	Flights  string
	Airlines string
	Tickets  string
	Users    string
	Profile  string
	Login    string
	Register string
	// Logout is a form endpoint with no page of its own.
	Logout string
}

// DefaultLinks are the URLs of the built-in page table.
func DefaultLinks() Links {
	return Links{
		Home:     "/",
		Flights:  "/flights/1/",
		Airlines: "/airlines/1/",
		Tickets:  "/tickets/",
		Users:    "/users/",
		Profile:  "/profile/",
		Login:    "/login/",
		Register: "/register/",
		Logout:   "/logout/",
	}
}

// Links looks up every page the chrome depends on by content key. Keys the
// registry does not define keep their built-in URL.
func (r *Registry) Links() Links {
	l := DefaultLinks()
	for _, f := range []struct {
		dst     *string
		content string
	}{
		{&l.Home, ContentHome},
		{&l.Flights, ContentFlights},
		{&l.Airlines, ContentAirlines},
		{&l.Tickets, ContentTickets},
		{&l.Users, ContentUsers},
		{&l.Profile, ContentProfile},
		{&l.Login, ContentLogin},
		{&l.Register, ContentRegister},
	} {
		if href, ok := r.PathFor(f.content); ok {
			*f.dst = href
		}
	}
	return l
}

// OrDefault fills the empty fields of l with the built-in URLs.
func (l Links) OrDefault() Links {
	d := DefaultLinks()
	for _, f := range []struct{ dst, def *string }{
		{&l.Home, &d.Home},
		{&l.Flights, &d.Flights},
		{&l.Airlines, &d.Airlines},
		{&l.Tickets, &d.Tickets},
		{&l.Users, &d.Users},
		{&l.Profile, &d.Profile},
		{&l.Login, &d.Login},
		{&l.Register, &d.Register},
		{&l.Logout, &d.Logout},
	} {
		if *f.dst == "" {
			*f.dst = *f.def
		}
	}
	return l
}
