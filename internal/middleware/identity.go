// Package middleware provides HTTP middlewares for viewer identity and
// request logging.
package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atinyakov/FlightDesk/internal/identity"
)

type ctxKey string

const providerKey ctxKey = "identity"

// SourceFunc returns the whoami source for the browser that sent r.
type SourceFunc func(r *http.Request) identity.Source

// Identify resolves the viewer of every request before the handler runs.
// It builds a request-scoped identity.Provider over the source, refreshes it
// once, and stores it in the request context. A failed refresh leaves the
// viewer anonymous and the provider stale; the provider logs the failure.
func Identify(source SourceFunc, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Per-request providers always start anonymous, so their
			// "identity changed" info lines are noise here.
			log := logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
			if id := RequestIDFromContext(r.Context()); id != "" {
				log = log.With(zap.String("request_id", id))
			}
			p := identity.NewProvider(source(r), log)
			_, _ = p.Refresh(r.Context())
			ctx := WithProvider(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithProvider returns a copy of ctx carrying p.
func WithProvider(ctx context.Context, p *identity.Provider) context.Context {
	return context.WithValue(ctx, providerKey, p)
}

// ProviderFromContext returns the provider stored by Identify, or nil.
func ProviderFromContext(ctx context.Context) *identity.Provider {
	p, _ := ctx.Value(providerKey).(*identity.Provider)
	return p
}

// IdentityFromContext returns the viewer of the request. It is anonymous
// when Identify did not run.
func IdentityFromContext(ctx context.Context) identity.Identity {
	if p := ProviderFromContext(ctx); p != nil {
		return p.Current()
	}
	return identity.Anonymous()
}

// IdentityStale reports whether the viewer could not be confirmed with the
// backend for this request.
func IdentityStale(ctx context.Context) bool {
	if p := ProviderFromContext(ctx); p != nil {
		return p.Stale()
	}
	return false
}
