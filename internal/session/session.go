// Package session ties the notification pipeline together for one
// signed-in user: one feed store, one broker connection, one snapshot
// fetch. A session is constructed on login and closed on logout; there
// is no cross-session shared state.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nvhoang/shopfeed/internal/broker"
	"github.com/nvhoang/shopfeed/internal/feed"
	"github.com/nvhoang/shopfeed/internal/model"
)

// SnapshotFetcher retrieves the user's stored notification history.
// *rest.Client implements this.
type SnapshotFetcher interface {
	UserNotifications(ctx context.Context, userID string) ([]model.Notification, error)
}

// Session is the per-login notification pipeline instance.
type Session struct {
	id      string
	userID  string
	feed    *feed.Store
	manager *broker.Manager
	fetcher SnapshotFetcher
	log     *zap.Logger

	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates a session for the given user. Nothing connects until
// Start is called.
func New(
	userID string,
	f *feed.Store,
	m *broker.Manager,
	fetcher SnapshotFetcher,
	log *zap.Logger,
) *Session {
	id := uuid.New().String()
	return &Session{
		id:      id,
		userID:  userID,
		feed:    f,
		manager: m,
		fetcher: fetcher,
		log:     log.With(zap.String("session_id", id), zap.String("user_id", userID)),
	}
}

// UserID returns the identity this session was created for.
func (s *Session) UserID() string { return s.userID }

// Feed returns the session's notification store.
func (s *Session) Feed() *feed.Store { return s.feed }

// Start kicks off the snapshot fetch and the broker connection
// concurrently and returns immediately. The two deliberately race:
// the feed's merge is commutative, so neither side is privileged. A
// snapshot error is recoverable and never blocks live delivery.
func (s *Session) Start(ctx context.Context) {
	go s.fetchSnapshot(ctx)

	go func() {
		if err := s.manager.Connect(ctx, s.userID); err != nil {
			s.log.Warn("initial broker connect failed", zap.Error(err))
		}
	}()
}

// fetchSnapshot issues the one-shot history read and seeds the feed. A
// response arriving after the session was closed is discarded, so a
// stale snapshot can never leak into a later session's feed.
func (s *Session) fetchSnapshot(ctx context.Context) {
	list, err := s.fetcher.UserNotifications(ctx, s.userID)
	if err != nil {
		s.log.Warn("snapshot fetch failed", zap.Error(err))
		return
	}
	if s.closed.Load() {
		s.log.Debug("discarding snapshot for closed session")
		return
	}
	s.feed.IngestSnapshot(ctx, list)
	s.log.Info("snapshot merged", zap.Int("count", len(list)))
}

// Close tears the session down. The broker disconnect is synchronous:
// by the time Close returns, no in-flight frame can reach the feed.
// Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.manager.Disconnect()
		s.log.Info("session closed")
	})
}
