// Package service provides the account and booking flows shared by the web
// server and the terminal client, delegating I/O to the booking backend.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/models"
	"github.com/atinyakov/FlightDesk/internal/validation"
)

// AuthBackend defines the backend operations required by the
// authentication service.
type AuthBackend interface {
	// Login starts a session for the given credentials.
	Login(ctx context.Context, username, password string) error
	// Logout ends the current session.
	Logout(ctx context.Context) error
	// RegisterCustomer creates a customer account.
	RegisterCustomer(ctx context.Context, reg models.CustomerRegistration) error
	// RegisterAirline creates an airline account.
	RegisterAirline(ctx context.Context, reg models.AirlineRegistration) error
	// CreateAdmin creates an admin account.
	CreateAdmin(ctx context.Context, reg models.AdminRegistration) error
}

// IdentityRefresher is the part of identity.Provider the service needs.
type IdentityRefresher interface {
	Current() identity.Identity
	Refresh(ctx context.Context) (identity.Identity, error)
}

// ErrInvalidInput is matched by every *InputError.
var ErrInvalidInput = errors.New("invalid input")

// InputError reports form fields that failed validation.
type InputError struct {
	Fields validation.Errors
}

func (e *InputError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid input: %s", strings.Join(names, ", "))
}

// Is makes errors.Is(err, ErrInvalidInput) true.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Credentials is the login form.
type Credentials struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Account is the login part shared by every sign-up form.
type Account struct {
	Username  string `form:"username" validate:"required,username"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required,password"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
}

func (a Account) model() models.Account {
	return models.Account{Username: a.Username, Password: a.Password, Password2: a.Password2, Email: a.Email}
}

// CustomerSignup is the customer registration form.
type CustomerSignup struct {
	Account
	FirstName  string `form:"first_name" validate:"required"`
	LastName   string `form:"last_name" validate:"required"`
	Address    string `form:"address" validate:"required"`
	Phone      string `form:"phone_number" validate:"required,phone"`
	CreditCard string `form:"credit_card_number"`
}

// AirlineSignup is the airline registration form.
type AirlineSignup struct {
	Account
	Name    string `form:"name" validate:"required"`
	Country int64  `form:"country" validate:"gt=0"`
}

// AdminSignup is the form admins use to add another admin.
type AdminSignup struct {
	Account
	FirstName string `form:"first_name" validate:"required"`
	LastName  string `form:"last_name" validate:"required"`
}

// AuthService implements login, logout and registration and keeps the
// viewer's identity current after each of them.
type AuthService struct {
	api AuthBackend
	ids IdentityRefresher
	v   *validation.Validator
}

// NewAuthService constructs an AuthService. ids is refreshed after every
// flow that can change who the viewer is.
func NewAuthService(api AuthBackend, ids IdentityRefresher) *AuthService {
	return &AuthService{api: api, ids: ids, v: validation.New()}
}

func (s *AuthService) check(form any) error {
	fields, err := s.v.Struct(form)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &InputError{Fields: fields}
	}
	return nil
}

// Login signs in and returns the refreshed identity. A refresh failure
// after a successful login is not an error; the provider keeps its last
// known value and logs the failure.
func (s *AuthService) Login(ctx context.Context, c Credentials) (identity.Identity, error) {
	if err := s.check(c); err != nil {
		return s.ids.Current(), err
	}
	if err := s.api.Login(ctx, c.Username, c.Password); err != nil {
		return s.ids.Current(), err
	}
	id, _ := s.ids.Refresh(ctx)
	return id, nil
}

// Logout signs out and returns the refreshed identity.
func (s *AuthService) Logout(ctx context.Context) (identity.Identity, error) {
	if err := s.api.Logout(ctx); err != nil {
		return s.ids.Current(), err
	}
	id, _ := s.ids.Refresh(ctx)
	return id, nil
}

// RegisterCustomer creates a customer account.
func (s *AuthService) RegisterCustomer(ctx context.Context, f CustomerSignup) error {
	if err := s.check(f); err != nil {
		return err
	}
	err := s.api.RegisterCustomer(ctx, models.CustomerRegistration{
		Account:    f.Account.model(),
		FirstName:  f.FirstName,
		LastName:   f.LastName,
		Address:    f.Address,
		Phone:      f.Phone,
		CreditCard: f.CreditCard,
	})
	return s.afterRegister(ctx, err)
}

// RegisterAirline creates an airline account.
func (s *AuthService) RegisterAirline(ctx context.Context, f AirlineSignup) error {
	if err := s.check(f); err != nil {
		return err
	}
	err := s.api.RegisterAirline(ctx, models.AirlineRegistration{
		Account: f.Account.model(),
		Name:    f.Name,
		Country: f.Country,
	})
	return s.afterRegister(ctx, err)
}

// CreateAdmin creates an admin account. Only admins may do this.
func (s *AuthService) CreateAdmin(ctx context.Context, f AdminSignup) error {
	if s.ids.Current().Type != identity.Admin {
		return fmt.Errorf("create admin: %w", ErrNotAllowed)
	}
	if err := s.check(f); err != nil {
		return err
	}
	err := s.api.CreateAdmin(ctx, models.AdminRegistration{
		Account:   f.Account.model(),
		FirstName: f.FirstName,
		LastName:  f.LastName,
	})
	return s.afterRegister(ctx, err)
}

// afterRegister refreshes the identity when the viewer was signed in, since
// the backend may have changed the session.
func (s *AuthService) afterRegister(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if s.ids.Current().LoggedIn {
		_, _ = s.ids.Refresh(ctx)
	}
	return nil
}
