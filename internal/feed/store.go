package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nvhoang/shopfeed/internal/model"
	"github.com/nvhoang/shopfeed/internal/store"
)

// Store is the merged, ordered, deduplicated notification feed and the
// single source of truth for read/unread state. It owns the persisted
// mirror: all writes to the mirror go through Store mutations.
//
// Ordering is newest-first. Live arrivals are prepended in arrival
// order; snapshot entries keep the server's order behind whatever live
// entries are already present. Entries with a server ID are merged by
// that ID; entries without one are kept distinct.
type Store struct {
	mirror store.Mirror
	log    *zap.Logger

	mu    sync.Mutex
	items []model.Notification
	ids   map[int64]struct{}

	lmu        sync.Mutex
	listeners  map[int]Listener
	nextHandle int
}

// NewStore creates an empty feed backed by the given mirror.
func NewStore(mirror store.Mirror, log *zap.Logger) *Store {
	return &Store{
		mirror:    mirror,
		log:       log,
		ids:       make(map[int64]struct{}),
		listeners: make(map[int]Listener),
	}
}

// Load rehydrates the feed from the persisted mirror, replacing the
// current contents. An absent mirror key leaves the feed empty. No
// listener event is dispatched; Load runs before listeners exist.
func (s *Store) Load(ctx context.Context) error {
	list, ok, err := s.mirror.LoadFeed(ctx)
	if err != nil {
		return fmt.Errorf("loading persisted feed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.ids = make(map[int64]struct{})
	if !ok {
		return nil
	}
	for _, n := range list {
		if n.HasID() {
			if _, dup := s.ids[*n.ID]; dup {
				continue
			}
			s.ids[*n.ID] = struct{}{}
		}
		s.items = append(s.items, n)
	}
	return nil
}

// IngestSnapshot merges a REST-fetched history into the feed. Each
// entry runs through the same dedup check as live ingestion: entries
// whose ID is already present are skipped, so a live duplicate that
// arrived first keeps its position and read state. New entries keep
// their read flag exactly as given and are appended behind existing
// live arrivals, preserving server order. Safe to call again on retry.
func (s *Store) IngestSnapshot(ctx context.Context, list []model.Notification) {
	s.mu.Lock()
	changed := false
	for _, n := range list {
		if n.HasID() {
			if _, dup := s.ids[*n.ID]; dup {
				continue
			}
			s.ids[*n.ID] = struct{}{}
		}
		if n.ClientKey == "" {
			n.ClientKey = uuid.New().String()
		}
		if n.Scope == "" {
			n.Scope = model.ScopePersonal
		}
		s.items = append(s.items, n)
		changed = true
	}
	unread := s.unreadLocked()
	if changed {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	// One event for the whole batch, even when nothing was added, so
	// the UI can leave its loading state.
	s.dispatch(Event{Kind: EventChanged, UnreadCount: unread})
}

// IngestLive applies one push-delivered notification. Re-delivery of an
// ID already in the feed is a no-op, tolerating broker redelivery after
// reconnect. New entries are prepended: arrival order is the only
// ordering signal for push events.
func (s *Store) IngestLive(ctx context.Context, n model.Notification) {
	s.mu.Lock()
	if n.HasID() {
		if _, dup := s.ids[*n.ID]; dup {
			s.mu.Unlock()
			return
		}
		s.ids[*n.ID] = struct{}{}
	}
	if n.ClientKey == "" {
		n.ClientKey = uuid.New().String()
	}
	s.items = append([]model.Notification{n}, s.items...)
	unread := s.unreadLocked()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.dispatch(Event{Kind: EventNew, Notification: &n, UnreadCount: unread})
}

// MarkAsRead flips the read flag for the entry with the given server ID.
// No-op if no such entry exists or it is already read.
func (s *Store) MarkAsRead(ctx context.Context, id int64) {
	s.markRead(ctx, func(n model.Notification) bool {
		return n.HasID() && *n.ID == id
	})
}

// MarkAsReadByKey flips the read flag for the entry with the given
// client-local key, which is how entries without a server ID are
// addressed.
func (s *Store) MarkAsReadByKey(ctx context.Context, key string) {
	s.markRead(ctx, func(n model.Notification) bool {
		return n.ClientKey == key
	})
}

func (s *Store) markRead(ctx context.Context, match func(model.Notification) bool) {
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if match(s.items[i]) {
			if !s.items[i].Read {
				s.items[i].Read = true
				changed = true
			}
			break
		}
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	unread := s.unreadLocked()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.dispatch(Event{Kind: EventChanged, UnreadCount: unread})
}

// MarkAllAsRead flips every entry to read with a single persist and a
// single listener event.
func (s *Store) MarkAllAsRead(ctx context.Context) {
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			changed = true
		}
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.dispatch(Event{Kind: EventChanged, UnreadCount: 0})
}

// Clear empties the feed and removes the persisted mirror entirely, so
// a future cold start does not rehydrate stale state.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.ids = make(map[int64]struct{})
	if err := s.mirror.DeleteFeed(ctx); err != nil {
		s.log.Warn("deleting persisted feed failed", zap.Error(err))
	}
	s.mu.Unlock()

	s.dispatch(Event{Kind: EventChanged, UnreadCount: 0})
}

// Notifications returns a copy of the current feed, newest first.
func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// UnreadCount returns the number of unread entries. Always derived by
// recounting the list, never tracked as a separate counter.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadLocked()
}

// AddListener registers a callback invoked on every feed mutation and
// returns its unsubscribe function. The same callback may be registered
// multiple times; each registration is independent, and calling an
// unsubscribe function more than once removes only its own registration.
func (s *Store) AddListener(fn Listener) func() {
	s.lmu.Lock()
	handle := s.nextHandle
	s.nextHandle++
	s.listeners[handle] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, handle)
		s.lmu.Unlock()
	}
}

// unreadLocked recounts unread entries. Caller holds mu.
func (s *Store) unreadLocked() int {
	count := 0
	for i := range s.items {
		if !s.items[i].Read {
			count++
		}
	}
	return count
}

// persistLocked writes the current list to the mirror. Persistence
// failures are logged, not surfaced: the in-memory feed stays
// authoritative for the session. Caller holds mu.
func (s *Store) persistLocked(ctx context.Context) {
	list := make([]model.Notification, len(s.items))
	copy(list, s.items)
	if err := s.mirror.SaveFeed(ctx, list); err != nil {
		s.log.Warn("persisting feed failed", zap.Error(err))
	}
}

// dispatch fans an event out to every registered listener. The listener
// set is copied first so an unsubscribe from inside a callback is safe.
func (s *Store) dispatch(ev Event) {
	s.lmu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
