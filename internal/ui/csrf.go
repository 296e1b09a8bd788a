package ui

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const (
	csrfCookieName = "fd_csrf"
	csrfFieldName  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

type csrfContextKey struct{}

// CSRF protects the site's HTML forms with a double-submit token: a cookie
// plus a hidden form field that must match it.
type CSRF struct {
	// Secure marks the token cookie Secure.
	Secure bool
}

// Ensure issues a token cookie when the browser has none and makes the
// token available to Field.
func (c CSRF) Ensure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := readCSRFCookie(r)
		if token == "" {
			token = randomToken(32)
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   c.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), csrfContextKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require rejects unsafe requests whose form field or header does not match
// the token cookie.
func (c CSRF) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		cookieToken := readCSRFCookie(r)
		if cookieToken == "" {
			Render(w, http.StatusForbidden, ErrorPage("Form expired", "Missing CSRF token cookie. Reload the page and try again."))
			return
		}

		formToken := strings.TrimSpace(r.Header.Get(csrfHeaderName))
		if formToken == "" {
			_ = r.ParseForm()
			formToken = strings.TrimSpace(r.PostForm.Get(csrfFieldName))
		}

		if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(formToken)) != 1 {
			Render(w, http.StatusForbidden, ErrorPage("Form expired", "Invalid or missing CSRF token. Reload the page and try again."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Field returns the hidden input carrying the request's token.
func Field(r *http.Request) Node {
	token, _ := r.Context().Value(csrfContextKey{}).(string)
	if token == "" {
		token = readCSRFCookie(r)
	}
	return Input(Type("hidden"), Name(csrfFieldName), Value(token))
}

func readCSRFCookie(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func randomToken(size int) string {
	if size < 16 {
		size = 16
	}
	b := make([]byte, size)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
