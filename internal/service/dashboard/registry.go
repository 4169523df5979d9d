package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type factory func(ctx context.Context) (*Dashboard, error)

// slot lets concurrent first requests for one token share a single build.
type slot struct {
	once sync.Once
	done atomic.Bool
	dash *Dashboard
	err  error
}

// built returns the dashboard once its build has finished successfully.
func (s *slot) built() *Dashboard {
	if !s.done.Load() {
		return nil
	}
	return s.dash
}

// Registry keeps one Dashboard per access token. Tokens are stored hashed.
type Registry struct {
	log         *slog.Logger
	build       factory
	idleTimeout time.Duration

	mu    sync.Mutex
	slots map[string]*slot
}

// NewRegistry creates a registry that builds dashboards from deps.
func NewRegistry(logger *slog.Logger, deps Deps) *Registry {
	return &Registry{
		log: logger.With("component", "registry"),
		build: func(ctx context.Context) (*Dashboard, error) {
			return New(ctx, logger, deps)
		},
		idleTimeout: deps.Dashboard.IdleTimeout,
		slots:       make(map[string]*slot),
	}
}

// Get returns the dashboard of token, creating it on first use. A failed
// build is not remembered, so the next call retries.
func (r *Registry) Get(ctx context.Context, token string) (*Dashboard, error) {
	key := hashToken(token)

	r.mu.Lock()
	s, ok := r.slots[key]
	if !ok {
		s = &slot{}
		r.slots[key] = s
	}
	r.mu.Unlock()

	s.once.Do(func() {
		s.dash, s.err = r.build(ctx)
		s.done.Store(true)
	})
	if s.err != nil {
		r.mu.Lock()
		if r.slots[key] == s {
			delete(r.slots, key)
		}
		r.mu.Unlock()
		return nil, fmt.Errorf("dashboard.Registry.Get: %w", s.err)
	}

	s.dash.Touch(time.Now())
	return s.dash, nil
}

// Drop closes and forgets the dashboard of token.
func (r *Registry) Drop(token string) {
	key := hashToken(token)

	r.mu.Lock()
	s, ok := r.slots[key]
	delete(r.slots, key)
	r.mu.Unlock()

	if ok {
		if d := s.built(); d != nil {
			d.Close()
		}
	}
}

// EvictIdle closes dashboards without activity since idleTimeout before
// now and returns how many were evicted.
func (r *Registry) EvictIdle(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-r.idleTimeout)

	var idle []*Dashboard
	r.mu.Lock()
	for key, s := range r.slots {
		d := s.built()
		if d == nil || d.LastSeen().After(cutoff) {
			continue
		}
		idle = append(idle, d)
		delete(r.slots, key)
	}
	r.mu.Unlock()

	for _, d := range idle {
		d.Close()
	}
	if len(idle) > 0 {
		r.log.Info("evicted idle dashboards", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Len returns the number of live dashboards.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Close closes every dashboard.
func (r *Registry) Close() {
	r.mu.Lock()
	slots := r.slots
	r.slots = make(map[string]*slot)
	r.mu.Unlock()

	for _, s := range slots {
		if d := s.built(); d != nil {
			d.Close()
		}
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
