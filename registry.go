package norah

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	TTL       time.Duration    // Idle sessions older than this are evicted (default 30m)
	RateLimit float64          // Replies per second per session; 0 disables limiting
	Burst     int              // Limiter burst (default 5)
	Clock     func() time.Time // Default time.Now
	Logger    *zap.Logger
}

type registryEntry struct {
	session *Session
	limiter *rate.Limiter
}

// Registry keeps one Session per client key for servers that host many
// conversations, evicting idle ones with a background reaper.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	opts    RegistryOptions
	cancel  context.CancelFunc
}

// NewRegistry creates an empty registry. Call Start to run the reaper.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		entries: make(map[string]*registryEntry),
		opts:    opts,
	}
}

// Get returns the session for key, creating it on first use.
func (r *Registry) Get(key string) *Session {
	return r.entry(key).session
}

// Allow reports whether key may be served now under the rate limit.
func (r *Registry) Allow(key string) bool {
	e := r.entry(key)
	if e.limiter == nil {
		return true
	}
	return e.limiter.AllowN(r.opts.Clock(), 1)
}

// Reset resets the session for key if one exists.
func (r *Registry) Reset(key string) {
	r.mu.Lock()
	e, ok := r.entries[key]
	r.mu.Unlock()
	if ok {
		e.session.Reset()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) entry(key string) *registryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key]; ok {
		return e
	}
	s := NewSession()
	s.lastSeen = r.opts.Clock()
	e := &registryEntry{session: s}
	if r.opts.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(r.opts.RateLimit), r.opts.Burst)
	}
	r.entries[key] = e
	return e
}

// Sweep evicts sessions idle for longer than the TTL and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for key, e := range r.entries {
		if now.Sub(e.session.idleSince()) > r.opts.TTL {
			delete(r.entries, key)
			evicted++
		}
	}
	return evicted
}

// Start runs a background goroutine that sweeps idle sessions every interval.
func (r *Registry) Start(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := r.Sweep(r.opts.Clock()); n > 0 {
					r.opts.Logger.Debug("session sweep", zap.Int("evicted", n))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close stops the reaper.
func (r *Registry) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}
