package ui

import (
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/atinyakov/FlightDesk/internal/models"
	"github.com/atinyakov/FlightDesk/internal/registry"
	"github.com/atinyakov/FlightDesk/internal/validation"
)

// FormState is a submitted form shown back to the viewer: the values to
// keep, per-field messages and a form-level error.
type FormState struct {
	Values map[string]string
	Fields validation.Errors
	Error  string
}

func (f FormState) value(name string) string {
	return f.Values[name]
}

func field(label, name, typ string, f FormState, attrs ...Node) Node {
	value := f.value(name)
	if typ == "password" {
		value = ""
	}
	msg := f.Fields[name]
	return Div(
		Class("field"),
		Label(For(name), Text(label)),
		Input(ID(name), Name(name), Type(typ), If(value != "", Value(value)), Group(attrs)),
		If(msg != "", Span(Class("field-error"), Text(msg))),
	)
}

func countrySelect(name, label string, countries []models.Country, selected int64, anyOption bool) Node {
	opts := make([]Node, 0, len(countries)+1)
	if anyOption {
		opts = append(opts, Option(Value(""), Text("Any")))
	} else {
		opts = append(opts, Option(Value(""), Text("Choose a country")))
	}
	for _, c := range countries {
		opts = append(opts, Option(
			Value(strconv.FormatInt(c.ID, 10)),
			If(c.ID == selected, Selected()),
			Text(c.Name),
		))
	}
	return Div(
		Class("field"),
		Label(For(name), Text(label)),
		Select(ID(name), Name(name), Group(opts)),
	)
}

func accountFields(f FormState) Node {
	return Group{
		field("Username", "username", "text", f, Required(), Attr("autocomplete", "username")),
		field("Email", "email", "email", f, Required()),
		field("Password", "password", "password", f, Required(), Attr("autocomplete", "new-password")),
		field("Repeat password", "password2", "password", f, Required(), Attr("autocomplete", "new-password")),
	}
}

// Login renders the login form. It posts to the login page itself.
func Login(f FormState, csrf Node, links registry.Links) Node {
	links = links.OrDefault()
	return Form(
		Method("post"),
		Action(links.Login),
		csrf,
		Alert(f.Error),
		field("Username", "username", "text", f, Required(), Attr("autocomplete", "username")),
		field("Password", "password", "password", f, Required(), Attr("autocomplete", "current-password")),
		Button(Type("submit"), Class("btn"), Text("Login")),
		P(Text("No account yet? "), A(Href(links.Register), Text("Register")), Text(".")),
	)
}

// Account kinds offered on the registration page.
const (
	RegisterCustomer = "customer"
	RegisterAirline  = "airline"
)

// RegisterView is the data of the registration page.
type RegisterView struct {
	// Kind is RegisterCustomer or RegisterAirline.
	Kind      string
	Form      FormState
	Countries []models.Country
	CSRF      Node
	Links     registry.Links
}

// Register renders the sign-up form for customers or airlines.
func Register(v RegisterView) Node {
	links := v.Links.OrDefault()
	var profile Node
	if v.Kind == RegisterAirline {
		selected, _ := strconv.ParseInt(v.Form.value("country"), 10, 64)
		msg := v.Form.Fields["country"]
		profile = Group{
			field("Airline name", "name", "text", v.Form, Required()),
			countrySelect("country", "Country", v.Countries, selected, false),
			If(msg != "", Span(Class("field-error"), Text(msg))),
		}
	} else {
		profile = customerFields(v.Form)
	}

	return Group{
		P(
			kindLink(links.Register, v.Kind, RegisterCustomer, "Customer"),
			Text(" | "),
			kindLink(links.Register, v.Kind, RegisterAirline, "Airline"),
		),
		Form(
			Method("post"),
			Action(links.Register),
			v.CSRF,
			Input(Type("hidden"), Name("account_type"), Value(v.Kind)),
			Alert(v.Form.Error),
			accountFields(v.Form),
			profile,
			Button(Type("submit"), Class("btn"), Text("Register")),
		),
	}
}

func kindLink(base, current, kind, label string) Node {
	if current == kind {
		return Strong(Text(label))
	}
	return A(Href(base+"?type="+kind), Text(label))
}

func customerFields(f FormState) Node {
	return Group{
		field("First name", "first_name", "text", f, Required()),
		field("Last name", "last_name", "text", f, Required()),
		field("Address", "address", "text", f, Required()),
		field("Phone number", "phone_number", "tel", f, Required()),
		field("Credit card", "credit_card_number", "text", f),
	}
}

// ProfileView is the data of the edit-profile page.
type ProfileView struct {
	Airline   *models.Airline
	Customer  *models.Customer
	Countries []models.Country
	Form      FormState
	Notice    string
	CSRF      Node
	Links     registry.Links
}

// Profile renders the edit-profile form. Current values are shown as
// placeholders and empty fields are left unchanged.
func Profile(v ProfileView) Node {
	var fields Node
	switch {
	case v.Airline != nil:
		fields = Group{
			field("Airline name", "name", "text", v.Form, Placeholder(v.Airline.Name)),
			countrySelect("country", "Country", v.Countries, v.Airline.Country, false),
		}
	case v.Customer != nil:
		c := v.Customer
		fields = Group{
			field("First name", "first_name", "text", v.Form, Placeholder(c.FirstName)),
			field("Last name", "last_name", "text", v.Form, Placeholder(c.LastName)),
			field("Address", "address", "text", v.Form, Placeholder(c.Address)),
			field("Phone number", "phone_number", "tel", v.Form, Placeholder(c.Phone)),
			field("Credit card", "credit_card_number", "text", v.Form, Placeholder(c.CreditCard)),
		}
	default:
		return Group{Alert(v.Form.Error)}
	}
	return Group{
		Notice(v.Notice),
		Form(
			Method("post"),
			Action(v.Links.OrDefault().Profile),
			v.CSRF,
			Alert(v.Form.Error),
			fields,
			Button(Type("submit"), Class("btn"), Text("Save changes")),
		),
	}
}
