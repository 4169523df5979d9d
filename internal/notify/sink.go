// Package notify holds transient user-facing notifications. Each
// notification removes itself after a kind-dependent lifetime.
package notify

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/config"
	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

type stopper interface {
	Stop() bool
}

// Sink is a fire-and-forget notification channel. It is safe for
// concurrent use.
type Sink struct {
	log      *slog.Logger
	shortTTL time.Duration
	longTTL  time.Duration

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) stopper

	mu     sync.Mutex
	items  []domain.Notification
	timers map[uuid.UUID]stopper
}

// NewSink creates a sink with lifetimes from cfg.
func NewSink(logger *slog.Logger, cfg config.NotifyConfig) *Sink {
	return &Sink{
		log:      logger.With("component", "notify"),
		shortTTL: cfg.ShortTTL,
		longTTL:  cfg.LongTTL,
		now:      time.Now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		timers: make(map[uuid.UUID]stopper),
	}
}

// TTL returns how long a notification of kind stays visible.
func (s *Sink) TTL(kind domain.NotificationKind) time.Duration {
	switch kind {
	case domain.NotificationWarning, domain.NotificationError:
		return s.longTTL
	}
	return s.shortTTL
}

// Show adds a notification and schedules its removal. Unknown kinds are
// shown as info.
func (s *Sink) Show(message string, kind domain.NotificationKind) domain.Notification {
	if !kind.IsValid() {
		kind = domain.NotificationInfo
	}

	n := domain.Notification{
		ID:        uuid.New(),
		Message:   message,
		Kind:      kind,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.items = append(s.items, n)
	s.timers[n.ID] = s.afterFunc(s.TTL(kind), func() { s.expire(n.ID) })
	s.mu.Unlock()

	s.log.Debug("notification shown", slog.String("kind", kind.String()), slog.String("message", message))
	return n
}

// List returns the visible notifications, oldest first.
func (s *Sink) List() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Dismiss removes a notification early. It reports whether the
// notification was still visible.
func (s *Sink) Dismiss(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	return s.remove(id)
}

// Close drops every notification and stops pending timers.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.items = nil
}

func (s *Sink) expire(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
}

// remove must be called with mu held.
func (s *Sink) remove(id uuid.UUID) bool {
	delete(s.timers, id)
	before := len(s.items)
	s.items = slices.DeleteFunc(s.items, func(n domain.Notification) bool { return n.ID == id })
	return len(s.items) != before
}
