package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/identity"
	"github.com/atinyakov/FlightDesk/internal/models"
	"github.com/atinyakov/FlightDesk/internal/validation"
)

// AccountBackend defines the profile operations used by AccountService.
type AccountBackend interface {
	Airline(ctx context.Context, id int64) (models.Airline, error)
	Customer(ctx context.Context, id int64) (models.Customer, error)
	PatchAirline(ctx context.Context, id int64, fields map[string]any) error
	PatchCustomer(ctx context.Context, id int64, fields map[string]any) error
	DeleteAirline(ctx context.Context, id int64) error
	DeleteCustomer(ctx context.Context, id int64) error
}

// Profile is the editable profile of an airline or customer viewer. Exactly
// one of Airline and Customer is set.
type Profile struct {
	Airline  *models.Airline
	Customer *models.Customer
}

// ProfileUpdate is the edit-profile form. Empty fields are left unchanged.
type ProfileUpdate struct {
	Name       string `form:"name"`
	Country    int64  `form:"country" validate:"gte=0"`
	FirstName  string `form:"first_name"`
	LastName   string `form:"last_name"`
	Address    string `form:"address"`
	Phone      string `form:"phone_number" validate:"omitempty,phone"`
	CreditCard string `form:"credit_card_number"`
}

// AccountService edits the viewer's own profile and lets admins remove
// accounts.
type AccountService struct {
	api AccountBackend
	v   *validation.Validator
}

// NewAccountService constructs an AccountService.
func NewAccountService(api AccountBackend) *AccountService {
	return &AccountService{api: api, v: validation.New()}
}

// Profile loads the viewer's profile. Only airlines and customers have one.
func (s *AccountService) Profile(ctx context.Context, viewer identity.Identity) (Profile, error) {
	id, ok := viewer.Entity()
	if !ok {
		return Profile{}, fmt.Errorf("profile: %w", ErrNotAllowed)
	}
	switch viewer.Type {
	case identity.Airline:
		a, err := s.api.Airline(ctx, id)
		if err != nil {
			return Profile{}, fmt.Errorf("load airline %d: %w", id, err)
		}
		return Profile{Airline: &a}, nil
	case identity.Customer:
		c, err := s.api.Customer(ctx, id)
		if err != nil {
			return Profile{}, fmt.Errorf("load customer %d: %w", id, err)
		}
		return Profile{Customer: &c}, nil
	}
	return Profile{}, fmt.Errorf("profile: %w", ErrNotAllowed)
}

// UpdateProfile patches the non-empty fields of u that apply to the viewer's
// account type. An update with nothing to change is a no-op.
func (s *AccountService) UpdateProfile(ctx context.Context, viewer identity.Identity, u ProfileUpdate) error {
	id, ok := viewer.Entity()
	if !ok {
		return fmt.Errorf("update profile: %w", ErrNotAllowed)
	}
	fields, err := s.v.Struct(u)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &InputError{Fields: fields}
	}

	patch := map[string]any{}
	set := func(key, val string) {
		if v := strings.TrimSpace(val); v != "" {
			patch[key] = v
		}
	}
	switch viewer.Type {
	case identity.Airline:
		set("name", u.Name)
		if u.Country > 0 {
			patch["country"] = u.Country
		}
		if len(patch) == 0 {
			return nil
		}
		return s.api.PatchAirline(ctx, id, patch)
	case identity.Customer:
		set("first_name", u.FirstName)
		set("last_name", u.LastName)
		set("address", u.Address)
		set("phone_number", u.Phone)
		set("credit_card_number", u.CreditCard)
		if len(patch) == 0 {
			return nil
		}
		return s.api.PatchCustomer(ctx, id, patch)
	}
	return fmt.Errorf("update profile: %w", ErrNotAllowed)
}

// Remove deletes a customer or airline profile. Admin only.
func (s *AccountService) Remove(ctx context.Context, viewer identity.Identity, userType string, profileID int64) error {
	if viewer.Type != identity.Admin {
		return fmt.Errorf("remove account: %w", ErrNotAllowed)
	}
	switch userType {
	case backend.UsersCustomers:
		return s.api.DeleteCustomer(ctx, profileID)
	case backend.UsersAirlines:
		return s.api.DeleteAirline(ctx, profileID)
	}
	return &InputError{Fields: validation.Errors{"type": fmt.Sprintf("Unknown account type %q.", userType)}}
}
