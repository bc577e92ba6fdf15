package store

import (
	"context"

	"github.com/nvhoang/shopfeed/internal/model"
)

// Mirror is the persisted copy of the notification feed. The feed store
// is its only writer; no other component may touch the stored value.
type Mirror interface {
	// SaveFeed replaces the persisted feed with the given list.
	SaveFeed(ctx context.Context, list []model.Notification) error

	// LoadFeed returns the persisted feed. ok is false when nothing
	// has ever been persisted (or the mirror was cleared), which is a
	// valid "no notifications yet" state.
	LoadFeed(ctx context.Context) (list []model.Notification, ok bool, err error)

	// DeleteFeed removes the persisted feed entirely, so a later cold
	// start does not rehydrate stale state.
	DeleteFeed(ctx context.Context) error
}
