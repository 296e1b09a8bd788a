// Package identity describes who the current viewer is and keeps the
// shared, single-writer copy of that record up to date.
package identity

import (
	"fmt"
	"strings"
)

// Type is the kind of viewer as reported by the backend.
type Type string

const (
	// Anon is a viewer without a session.
	Anon Type = "anon"
	// Customer is a logged-in customer who can buy and cancel tickets.
	Customer Type = "customer"
	// Airline is a logged-in airline company managing its flights.
	Airline Type = "airline"
	// Admin is a logged-in administrator managing users.
	Admin Type = "admin"
)

// Types lists every viewer type in a stable order.
var Types = []Type{Anon, Customer, Airline, Admin}

// String returns the wire name of the type.
func (t Type) String() string { return string(t) }

// Valid reports whether t is one of the known viewer types.
func (t Type) Valid() bool {
	switch t {
	case Anon, Customer, Airline, Admin:
		return true
	}
	return false
}

// ParseType converts a wire name into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown viewer type %q", s)
	}
	return t, nil
}

// Identity is the normalized record of the current viewer.
//
// Type is Anon if and only if LoggedIn is false. EntityID and EntityName
// are set if and only if LoggedIn is true.
type Identity struct {
	LoggedIn   bool    `json:"logged_in"`
	Type       Type    `json:"type"`
	UserID     *int64  `json:"id,omitempty"`
	Username   string  `json:"username,omitempty"`
	EntityID   *int64  `json:"entity_id,omitempty"`
	EntityName *string `json:"entity_name,omitempty"`
}

// Anonymous returns the identity every viewer starts with.
func Anonymous() Identity {
	return Identity{LoggedIn: false, Type: Anon}
}

// Normalize enforces the Identity invariants on a record decoded from the
// backend. Records that cannot describe a logged-in viewer collapse to
// Anonymous.
func Normalize(id Identity) Identity {
	t, err := ParseType(string(id.Type))
	if err != nil || t == Anon || !id.LoggedIn {
		return Anonymous()
	}
	if id.EntityID == nil || id.EntityName == nil {
		return Anonymous()
	}
	id.Type = t
	return id
}

// Name returns the display name of the viewer, or an empty string for
// anonymous viewers.
func (id Identity) Name() string {
	if id.EntityName != nil {
		return *id.EntityName
	}
	return ""
}

// Entity returns the role-specific profile ID, if any.
func (id Identity) Entity() (int64, bool) {
	if id.EntityID == nil {
		return 0, false
	}
	return *id.EntityID, true
}

// Equal reports whether two identities describe the same viewer.
func (id Identity) Equal(other Identity) bool {
	if id.LoggedIn != other.LoggedIn || id.Type != other.Type || id.Username != other.Username {
		return false
	}
	return eqPtr(id.UserID, other.UserID) &&
		eqPtr(id.EntityID, other.EntityID) &&
		eqPtr(id.EntityName, other.EntityName)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
