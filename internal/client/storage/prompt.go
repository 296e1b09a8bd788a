package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/atinyakov/FlightDesk/internal/service"
)

// Prompter asks the user for input one line at a time. Passwords are read
// without echo when the input is a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

// Reader exposes the buffered input so a command loop can share it.
func (p *Prompter) Reader() *bufio.Reader { return p.in }

// Line prints label and returns the trimmed reply. io.EOF is returned when
// the input ends before a reply.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password prints label and reads a secret. It is not trimmed.
func (p *Prompter) Password(label string) (string, error) {
	if !p.tty {
		fmt.Fprintf(p.out, "%s: ", label)
		line, err := p.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// Int prompts until the reply is empty or a non-negative number. Empty
// returns 0.
func (p *Prompter) Int(label string) (int64, error) {
	for {
		s, err := p.Line(label)
		if err != nil || s == "" {
			return 0, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil && n >= 0 {
			return n, nil
		}
		fmt.Fprintln(p.out, "Please enter a number.")
	}
}

// PromptCredentials asks for a username and password.
func PromptCredentials(p *Prompter) (service.Credentials, error) {
	var c service.Credentials
	var err error
	if c.Username, err = p.Line("Username"); err != nil {
		return c, err
	}
	if c.Password, err = p.Password("Password"); err != nil {
		return c, err
	}
	return c, nil
}

// PromptAccount asks for the login part of a sign-up form.
func PromptAccount(p *Prompter) (service.Account, error) {
	var a service.Account
	var err error
	if a.Username, err = p.Line("Username"); err != nil {
		return a, err
	}
	if a.Email, err = p.Line("Email"); err != nil {
		return a, err
	}
	if a.Password, err = p.Password("Password"); err != nil {
		return a, err
	}
	if a.Password2, err = p.Password("Repeat password"); err != nil {
		return a, err
	}
	return a, nil
}

// PromptCustomerSignup asks for a customer registration.
func PromptCustomerSignup(p *Prompter) (service.CustomerSignup, error) {
	f := service.CustomerSignup{}
	var err error
	if f.Account, err = PromptAccount(p); err != nil {
		return f, err
	}
	fields := []struct {
		label string
		dst   *string
	}{
		{"First name", &f.FirstName},
		{"Last name", &f.LastName},
		{"Address", &f.Address},
		{"Phone number", &f.Phone},
		{"Credit card number", &f.CreditCard},
	}
	for _, fld := range fields {
		if *fld.dst, err = p.Line(fld.label); err != nil {
			return f, err
		}
	}
	return f, nil
}

// PromptAirlineSignup asks for an airline registration.
func PromptAirlineSignup(p *Prompter) (service.AirlineSignup, error) {
	f := service.AirlineSignup{}
	var err error
	if f.Account, err = PromptAccount(p); err != nil {
		return f, err
	}
	if f.Name, err = p.Line("Airline name"); err != nil {
		return f, err
	}
	if f.Country, err = p.Int("Country id"); err != nil {
		return f, err
	}
	return f, nil
}
