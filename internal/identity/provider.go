package identity

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Source fetches the viewer's identity from the backend.
type Source interface {
	// Whoami returns the identity bound to the current session.
	Whoami(ctx context.Context) (Identity, error)
}

// Provider owns the process-wide Identity. It is the only writer of that
// value; every other component reads copies through Current or a
// subscription.
//
// Each refresh is stamped with a sequence number when it is issued. A
// response is applied only when its stamp is newer than the last applied
// one, so a slow response can never overwrite a fresher identity.
type Provider struct {
	src Source
	log *zap.Logger

	mu      sync.Mutex
	current Identity
	issued  uint64
	applied uint64
	stale   bool
	subs    map[uint64]*subscription
	nextSub uint64

	// notifyMu serializes deliveries so subscribers see values in order.
	notifyMu sync.Mutex
	inflight sync.WaitGroup
}

type subscription struct {
	fn     func(Identity)
	active atomic.Bool
}

// NewProvider returns a Provider that starts out Anonymous.
func NewProvider(src Source, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		src:     src,
		log:     log,
		current: Anonymous(),
		subs:    make(map[uint64]*subscription),
	}
}

// Current returns a copy of the latest known identity.
func (p *Provider) Current() Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Stale reports whether the most recent refresh failed, meaning Current
// holds a last-known value that the backend has not confirmed.
func (p *Provider) Stale() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stale
}

// Refresh asks the source for the latest identity and publishes it.
//
// On failure the previous identity is kept, the provider is marked stale
// and the error is logged and returned. The returned Identity is always
// the value the provider holds after the call.
func (p *Provider) Refresh(ctx context.Context) (Identity, error) {
	p.mu.Lock()
	p.issued++
	seq := p.issued
	p.mu.Unlock()

	id, err := p.src.Whoami(ctx)

	p.mu.Lock()
	if err != nil {
		if seq > p.applied {
			p.stale = true
		}
		cur := p.current
		p.mu.Unlock()
		p.log.Warn("identity refresh failed, keeping last known identity",
			zap.Uint64("seq", seq),
			zap.String("type", cur.Type.String()),
			zap.Error(err))
		return cur, err
	}
	if seq <= p.applied {
		cur, applied := p.current, p.applied
		p.mu.Unlock()
		p.log.Debug("discarding superseded identity response",
			zap.Uint64("seq", seq), zap.Uint64("applied", applied))
		return cur, nil
	}

	id = Normalize(id)
	p.applied = seq
	p.stale = false
	changed := !p.current.Equal(id)
	p.current = id
	p.mu.Unlock()

	if changed {
		p.log.Info("identity changed",
			zap.String("type", id.Type.String()),
			zap.String("name", id.Name()))
		p.notify()
	}
	return id, nil
}

// RefreshAsync starts a refresh without blocking the caller.
func (p *Provider) RefreshAsync(ctx context.Context) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		_, _ = p.Refresh(ctx)
	}()
}

// Wait blocks until every refresh started by RefreshAsync has settled.
func (p *Provider) Wait() {
	p.inflight.Wait()
}

// Subscribe registers fn to be called with the new identity whenever it
// changes. The returned function disposes the subscription: no delivery
// starts after it returns, though one already under way may still finish.
// It does not wait for that delivery, so fn may dispose its own
// subscription. It is safe to call more than once.
func (p *Provider) Subscribe(fn func(Identity)) (cancel func()) {
	s := &subscription{fn: fn}
	s.active.Store(true)

	p.mu.Lock()
	p.nextSub++
	key := p.nextSub
	p.subs[key] = s
	p.mu.Unlock()

	return func() {
		s.active.Store(false)
		p.mu.Lock()
		delete(p.subs, key)
		p.mu.Unlock()
	}
}

func (p *Provider) notify() {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	// Deliver the newest value, not the one that triggered this call, so a
	// delayed delivery never rolls subscribers back.
	p.mu.Lock()
	id := p.current
	subs := make([]*subscription, 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.Unlock()

	for _, s := range subs {
		if s.active.Load() {
			s.fn(id)
		}
	}
}
