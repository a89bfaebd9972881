package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSession is used when a request carries no session id.
const DefaultSession = "default"

// Registry owns one Store per session id and evicts idle ones.
type Registry struct {
	svc    Services
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry builds a registry. A ttl of zero disables eviction.
func NewRegistry(svc Services, ttl time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		svc:    svc,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
		stores: make(map[string]*Store),
	}
}

// Store returns the store for session, creating it on first use.
func (r *Registry) Store(session string) *Store {
	if session == "" {
		session = DefaultSession
	}
	now := r.now()
	r.mu.Lock()
	st, ok := r.stores[session]
	if !ok {
		st = NewStore(r.svc)
		st.logger = r.logger.With(slog.String("session", session))
		r.stores[session] = st
	}
	r.mu.Unlock()
	st.touch(now)
	return st
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops stores idle for longer than the ttl and returns how many.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, st := range r.stores {
		if st.idleSince().Before(cutoff) {
			delete(r.stores, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps on interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = r.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("workspace sessions evicted", slog.Int("count", n), slog.Int("live", r.Len()))
			}
		}
	}
}
