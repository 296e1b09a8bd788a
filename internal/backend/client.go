// Package backend is the REST client for the flight booking backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/FlightDesk/internal/cache"
)

const (
	// CSRFCookie is the backend cookie that carries the CSRF token.
	CSRFCookie = "csrftoken"
	// SessionCookie is the backend cookie that carries the login session.
	SessionCookie = "sessionid"

	csrfHeader  = "X-CSRFToken"
	maxBodySize = 4 << 20
	cachePrefix = "flightdesk"
)

// Client talks to the booking backend. The zero value is not usable; build
// one with New.
type Client struct {
	baseURL  string
	http     *http.Client
	jar      *sessionJar
	cache    cache.Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport and timeout used for requests. The
// client's Jar is replaced by the backend session.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache stores identity-independent reads in ch for ttl.
func WithCache(ch cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = ch
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: need http(s)://host", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.jar = newSessionJar(nil)
	c.http = withJar(c.http, c.jar)
	return c, nil
}

// WithSessionCookies returns a client that shares c's transport and cache but
// carries its own session seeded from cookies. Only backend cookies are kept.
// The server derives one per browser request.
func (c *Client) WithSessionCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.jar = newSessionJar(cookies)
	cp.http = withJar(c.http, cp.jar)
	return &cp
}

// Issued returns the cookies the backend set or cleared during this
// client's session, in the order received.
func (c *Client) Issued() []*http.Cookie {
	return c.jar.issued()
}

// SessionCookies returns the backend cookies the session currently holds.
func (c *Client) SessionCookies() []*http.Cookie {
	return c.jar.Cookies(nil)
}

// Cookie returns the current value of a session cookie.
func (c *Client) Cookie(name string) string {
	return c.jar.value(name)
}

func withJar(hc *http.Client, jar http.CookieJar) *http.Client {
	cp := *hc
	cp.Jar = jar
	return &cp
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.do(ctx, http.MethodGet, path, query, nil, out)
	return err
}

// getCached is get for identity-independent resources.
func (c *Client) getCached(ctx context.Context, path string, query url.Values, out any) error {
	if c.cache == nil {
		return c.get(ctx, path, query, out)
	}
	key := cache.Key(cachePrefix, http.MethodGet, path, query.Encode())
	if data, ok := c.cache.Get(ctx, key); ok {
		if err := json.Unmarshal(data, out); err == nil {
			return nil
		}
		c.log.Debug("discarding undecodable cache entry", zap.String("path", path))
	}
	data, err := c.do(ctx, http.MethodGet, path, query, nil, out)
	if err != nil {
		return err
	}
	c.cache.Set(ctx, key, data, c.cacheTTL)
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	if c.jar.value(CSRFCookie) == "" {
		if err := c.CSRF(ctx); err != nil {
			c.log.Warn("csrf refresh failed", zap.Error(err))
		}
	}
	_, err := c.do(ctx, method, path, nil, body, out)
	return err
}

// do performs one request and decodes a successful JSON body into out. It
// returns the raw body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && method != http.MethodHead {
		if tok := c.jar.value(CSRFCookie); tok != "" {
			req.Header.Set(csrfHeader, tok)
		}
		req.Header.Set("Referer", c.baseURL+"/")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return data, parseError(resp.StatusCode, data)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return data, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return data, nil
}

// sessionJar is a cookie jar for a single backend host. It also records
// every cookie the backend sets so the server can relay them to the browser.
type sessionJar struct {
	mu      sync.Mutex
	cookies map[string]*http.Cookie
	order   []string
	set     []*http.Cookie
}

func newSessionJar(seed []*http.Cookie) *sessionJar {
	j := &sessionJar{cookies: make(map[string]*http.Cookie)}
	for _, ck := range seed {
		if ck == nil || ck.Value == "" || !isBackendCookie(ck.Name) {
			continue
		}
		j.store(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	return j
}

func isBackendCookie(name string) bool {
	return name == SessionCookie || name == CSRFCookie
}

// SetCookies implements http.CookieJar.
func (j *sessionJar) SetCookies(_ *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, ck := range cookies {
		j.set = append(j.set, ck)
		if ck.MaxAge < 0 || ck.Value == "" || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			j.remove(ck.Name)
			continue
		}
		j.store(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
}

// Cookies implements http.CookieJar.
func (j *sessionJar) Cookies(_ *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*http.Cookie, 0, len(j.order))
	for _, name := range j.order {
		ck := *j.cookies[name]
		out = append(out, &ck)
	}
	return out
}

func (j *sessionJar) value(name string) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if ck, ok := j.cookies[name]; ok {
		return ck.Value
	}
	return ""
}

func (j *sessionJar) issued() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*http.Cookie(nil), j.set...)
}

// store and remove expect j.mu to be held, or j to be unshared.
func (j *sessionJar) store(ck *http.Cookie) {
	if _, ok := j.cookies[ck.Name]; !ok {
		j.order = append(j.order, ck.Name)
	}
	j.cookies[ck.Name] = ck
}

func (j *sessionJar) remove(name string) {
	if _, ok := j.cookies[name]; !ok {
		return
	}
	delete(j.cookies, name)
	for i, n := range j.order {
		if n == name {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
}
