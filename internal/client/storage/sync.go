package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/FlightDesk/internal/identity"
)

// Refresher is the part of identity.Provider the background refresh uses.
type Refresher interface {
	Refresh(ctx context.Context) (identity.Identity, error)
}

// StartAutoRefresh refreshes the identity every interval until ctx is
// done, so a session that expires on the backend is noticed between
// commands. Failures are logged by the provider and otherwise ignored.
// The returned channel is closed when the loop exits.
func StartAutoRefresh(ctx context.Context, r Refresher, interval time.Duration, log *zap.Logger) <-chan struct{} {
	if log == nil {
		log = zap.NewNop()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Debug("identity auto-refresh stopped")
				return
			case <-ticker.C:
				if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
					log.Debug("background identity refresh failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}
