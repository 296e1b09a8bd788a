// Package shell is the interactive terminal front end of FlightDesk. It
// keeps one identity for the whole process, prints the navigation that
// identity may see and opens registry pages by path.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/client/storage"
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/navigation"
	"github.com/atinyakov/FlightDesk/internal/registry"
	"github.com/atinyakov/FlightDesk/internal/routing"
	"github.com/atinyakov/FlightDesk/internal/service"
)

const helpText = `Commands:
  nav                       show the pages you can open
  go <path>                 open a page, e.g. go /flights/2/
  whoami                    show who you are logged in as
  refresh                   ask the backend who you are
  login                     log in
  logout                    log out
  register [customer|airline]
                            create an account
  buy <flight> <seats>      buy seats on a flight
  cancel <ticket>           cancel one of your tickets
  help                      show this text
  exit                      leave the shell`

// Options configures a Shell.
type Options struct {
	In  io.Reader
	Out io.Writer
	// Store persists the backend session between runs. Nil disables it.
	Store *storage.SessionStore
	// BackendURL keys the saved session.
	BackendURL string
	// Plain turns off colors.
	Plain  bool
	Logger *zap.Logger
}

// Shell runs the command loop against one backend session.
type Shell struct {
	api      *backend.Client
	ids      *identity.Provider
	reg      *registry.Registry
	links    registry.Links
	routes   *routing.Matcher
	auth     *service.AuthService
	booking  *service.BookingService
	accounts *service.AccountService

	prompt     *storage.Prompter
	store      *storage.SessionStore
	backendURL string
	log        *zap.Logger
	style      palette

	outMu sync.Mutex
	out   io.Writer

	mu         sync.Mutex
	path       string
	cancelLoad context.CancelFunc
	loads      sync.WaitGroup
}

// New builds a shell over api, whose session it owns, and reg.
func New(api *backend.Client, reg *registry.Registry, opts Options) *Shell {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ids := identity.NewProvider(api, opts.Logger)
	return &Shell{
		api:        api,
		ids:        ids,
		reg:        reg,
		links:      reg.Links(),
		routes:     routing.NewMatcher(routing.Resolve(reg)),
		auth:       service.NewAuthService(api, ids),
		booking:    service.NewBookingService(api),
		accounts:   service.NewAccountService(api),
		prompt:     storage.NewPrompter(opts.In, opts.Out),
		store:      opts.Store,
		backendURL: opts.BackendURL,
		log:        opts.Logger,
		style:      newPalette(opts.Plain),
		out:        opts.Out,
	}
}

// Identity exposes the shell's identity provider.
func (s *Shell) Identity() *identity.Provider { return s.ids }

// Run reads commands until exit, end of input or ctx is done. Page loads
// still running when it returns are waited for.
func (s *Shell) Run(ctx context.Context) error {
	unsubscribe := s.ids.Subscribe(func(id identity.Identity) {
		s.printf("%s\n", s.style.muted.Sprintf("You are now %s.", describeViewer(id)))
		s.printNav(id)
	})
	defer unsubscribe()
	defer s.loads.Wait()

	s.printf("%s\n", s.style.title.Sprint("FlightDesk"))
	if _, err := s.ids.Refresh(ctx); err != nil {
		s.printf("%s\n", s.style.warn.Sprint("The booking service did not answer; continuing offline."))
	}
	s.printWelcome()
	if !s.ids.Current().LoggedIn {
		// A viewer who stays anonymous triggers no change notification.
		s.printNav(s.ids.Current())
	}

	in := s.prompt.Reader()
	for {
		if err := ctx.Err(); err != nil {
			s.stopLoad()
			return nil
		}
		s.printf("%s", s.style.link.Sprint("flightdesk> "))
		line, err := in.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if quit := s.Exec(ctx, line); quit {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.printf("\n")
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "help", "?":
		s.printf("%s\n", helpText)
	case "nav":
		s.printNav(s.ids.Current())
	case "whoami":
		s.printWelcome()
	case "refresh":
		if _, err := s.ids.Refresh(ctx); err != nil {
			s.printError("Could not reach the booking service.", err)
		}
		s.printWelcome()
	case "go", "open":
		if len(args) < 2 {
			s.printf("Usage: go <path>\n")
			return false
		}
		s.Open(ctx, args[1])
	case "login":
		s.login(ctx)
	case "logout":
		s.logout(ctx)
	case "register":
		kind := "customer"
		if len(args) > 1 {
			kind = args[1]
		}
		s.register(ctx, kind)
	case "buy":
		s.buy(ctx, args[1:])
	case "cancel":
		s.cancel(ctx, args[1:])
	case "exit", "quit":
		s.printf("Bye\n")
		return true
	default:
		s.printf("Unknown command %q. Type 'help' for a list of commands.\n", args[0])
	}
	return false
}

// Open navigates to path. The identity is refreshed first, then the page
// loads in the background under a context that the next navigation
// cancels; a cancelled load prints nothing.
func (s *Shell) Open(ctx context.Context, path string) {
	rt, params, ok := s.routes.Match(path)
	if !ok {
		s.printf("%s\n", s.style.err.Sprintf("There is no page at %s.", path))
		return
	}
	_, _ = s.ids.Refresh(ctx)
	viewer := s.ids.Current()

	s.mu.Lock()
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel
	s.path = path
	s.loads.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.loads.Done()
		text := s.render(loadCtx, rt, params, viewer)

		s.mu.Lock()
		defer s.mu.Unlock()
		if loadCtx.Err() != nil {
			s.log.Debug("discarding cancelled page load", zap.String("path", path))
			return
		}
		s.printf("%s\n%s", s.style.title.Sprint(rt.Label), text)
	}()
}

// Wait blocks until every page load has finished or been discarded.
func (s *Shell) Wait() { s.loads.Wait() }

// Path is the last path opened.
func (s *Shell) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Shell) stopLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
}

func (s *Shell) login(ctx context.Context) {
	if s.ids.Current().LoggedIn {
		s.printf("You are already logged in. Use logout first.\n")
		return
	}
	creds, err := storage.PromptCredentials(s.prompt)
	if err != nil {
		return
	}
	if _, err := s.auth.Login(ctx, creds); err != nil {
		s.printError("Login failed.", err)
		return
	}
	s.saveSession()
}

func (s *Shell) logout(ctx context.Context) {
	if _, err := s.auth.Logout(ctx); err != nil {
		s.printError("Could not log out.", err)
		return
	}
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			s.log.Warn("clear saved session", zap.Error(err))
		}
	}
}

func (s *Shell) register(ctx context.Context, kind string) {
	var err error
	switch kind {
	case "customer":
		var f service.CustomerSignup
		if f, err = storage.PromptCustomerSignup(s.prompt); err != nil {
			return
		}
		err = s.auth.RegisterCustomer(ctx, f)
	case "airline":
		var f service.AirlineSignup
		if f, err = storage.PromptAirlineSignup(s.prompt); err != nil {
			return
		}
		err = s.auth.RegisterAirline(ctx, f)
	default:
		s.printf("Usage: register [customer|airline]\n")
		return
	}
	if err != nil {
		s.printError("Registration failed.", err)
		return
	}
	s.printf("%s\n", s.style.ok.Sprint("Your account has been created."))
	if !s.ids.Current().LoggedIn {
		s.printf("Use login to sign in.\n")
	}
}

func (s *Shell) buy(ctx context.Context, args []string) {
	if len(args) != 2 {
		s.printf("Usage: buy <flight> <seats>\n")
		return
	}
	flight, err1 := strconv.ParseInt(args[0], 10, 64)
	seats, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		s.printf("Usage: buy <flight> <seats>\n")
		return
	}
	ticket, err := s.booking.Buy(ctx, s.ids.Current(), flight, seats)
	if err != nil {
		s.printError("Could not buy the ticket.", err)
		return
	}
	s.printf("%s\n", s.style.ok.Sprintf("Ticket %d booked: %d seat(s) on flight %d.", ticket.ID, ticket.SeatCount, flight))
}

func (s *Shell) cancel(ctx context.Context, args []string) {
	if len(args) != 1 {
		s.printf("Usage: cancel <ticket>\n")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		s.printf("Usage: cancel <ticket>\n")
		return
	}
	if err := s.booking.Cancel(ctx, s.ids.Current(), id); err != nil {
		s.printError("Could not cancel the ticket.", err)
		return
	}
	s.printf("%s\n", s.style.ok.Sprintf("Ticket %d cancelled.", id))
}

func (s *Shell) saveSession() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.backendURL, s.api.SessionCookies()); err != nil {
		s.log.Warn("save session", zap.Error(err))
	}
}

func (s *Shell) printWelcome() {
	id := s.ids.Current()
	line := "Welcome! Please login to continue."
	if id.LoggedIn {
		line = fmt.Sprintf("Welcome, %s!", id.Name())
	}
	if s.ids.Stale() {
		line += " " + s.style.warn.Sprint("(offline)")
	}
	s.printf("%s\n", line)
}

// printNav prints the navigation for id, one item per line.
func (s *Shell) printNav(id identity.Identity) {
	var b strings.Builder
	for _, it := range navigation.Resolve(s.reg, id) {
		switch it := it.(type) {
		case navigation.Link:
			fmt.Fprintf(&b, "  %s  %s\n", it.Label, s.style.muted.Sprint(it.Href))
		case navigation.Dropdown:
			fmt.Fprintf(&b, "  %s\n", it.Label)
			for _, l := range it.Items {
				fmt.Fprintf(&b, "    %s  %s\n", l.Label, s.style.muted.Sprint(l.Href))
			}
		}
	}
	s.printf("%s\n%s", s.style.title.Sprint("Pages"), b.String())
}

func (s *Shell) printError(prefix string, err error) {
	s.log.Debug(prefix, zap.Error(err))
	s.printf("%s\n", s.style.err.Sprint(prefix+" "+describeError(err)))
	var in *service.InputError
	if errors.As(err, &in) {
		names := make([]string, 0, len(in.Fields))
		for name := range in.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s.printf("  %s: %s\n", name, in.Fields[name])
		}
	}
}

func (s *Shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func describeViewer(id identity.Identity) string {
	if !id.LoggedIn {
		return "not logged in"
	}
	return fmt.Sprintf("logged in as %s (%s)", id.Name(), id.Type)
}

func describeError(err error) string {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return "Please correct the fields below."
	case errors.Is(err, service.ErrNotAllowed):
		return "Your account cannot do that."
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		return strings.Join(backend.Messages(err), " ")
	}
	return "The booking service is unavailable. Please try again later."
}

// palette holds the colors the shell prints with.
type palette struct {
	title, link, muted, ok, warn, err *color.Color
}

func newPalette(plain bool) palette {
	p := palette{
		title: color.New(color.FgCyan, color.Bold),
		link:  color.New(color.FgBlue),
		muted: color.New(color.FgHiBlack),
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		err:   color.New(color.FgRed),
	}
	if plain {
		for _, c := range []*color.Color{p.title, p.link, p.muted, p.ok, p.warn, p.err} {
			c.DisableColor()
		}
	}
	return p
}
