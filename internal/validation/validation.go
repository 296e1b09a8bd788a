// Package validation checks form input before it is sent to the backend.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	emailRe    = regexp.MustCompile(`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9]{3,}$`)
	phoneRe    = regexp.MustCompile(`^(\+)?([ 0-9-]){10,16}$`)
)

// Messages shown next to a field that failed a rule.
var messages = map[string]string{
	"required": "This field is required.",
	"email":    "Please enter a valid email address.",
	"username": "Username must be at least 3 letters or digits.",
	"password": "Password must be at least 8 characters with upper and lower case letters and a digit or symbol.",
	"phone":    "Please enter a valid phone number.",
	"eqfield":  "Passwords do not match.",
	"gt":       "Please choose a value.",
	"min":      "Value is too small.",
	"max":      "Value is too large.",
}

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// Username reports whether s is at least three ASCII letters or digits.
func Username(s string) bool {
	return usernameRe.MatchString(s)
}

// Phone reports whether s is an optional '+' followed by 10 to 16 digits,
// spaces or dashes.
func Phone(s string) bool {
	return phoneRe.MatchString(s)
}

// Password reports whether s is at least 8 characters long, has no line
// breaks, does not start with '.', and contains an upper-case letter, a
// lower-case letter and a digit or non-word character.
func Password(s string) bool {
	if len([]rune(s)) < 8 || strings.ContainsAny(s, "\n\r\u2028\u2029") || strings.HasPrefix(s, ".") {
		return false
	}
	var upper, lower, digitOrSymbol bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r != '_':
			digitOrSymbol = true
		}
	}
	return upper && lower && digitOrSymbol
}

// Required reports whether s has any non-space content.
func Required(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Validator checks structs tagged with `validate`. Field names in errors come
// from the `form` tag so they match the HTML inputs.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the form rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "email", Email)
	mustRegister(v, "username", Username)
	mustRegister(v, "password", Password)
	mustRegister(v, "phone", Phone)
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn func(string) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// Errors maps a form field name to the first message for it.
type Errors map[string]string

// Struct validates s and returns the failing fields, or nil when s is valid.
func (v *Validator) Struct(s any) (Errors, error) {
	err := v.v.Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "Invalid value."
		}
		out[fe.Field()] = msg
	}
	return out, nil
}
