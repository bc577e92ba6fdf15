// Package broker maintains the client's logical connection to the
// storefront's pub/sub broker: one websocket carrying STOMP frames,
// two subscriptions (personal and global), and automatic reconnection
// with linear backoff. Inbound frames are parsed and pushed into the
// notification feed; the broker never reads feed state back.
package broker

import (
	"context"

	"github.com/nvhoang/shopfeed/internal/model"
)

// Message is a single frame delivered on a subscription. A non-nil Err
// means the transport failed; no further messages will follow.
type Message struct {
	Body []byte
	Err  error
}

// Subscription is one active destination binding on a live connection.
// Its channel is closed when the owning transport goes away, so stale
// subscriptions cannot silently stop delivering.
type Subscription interface {
	// C returns the inbound frame channel.
	C() <-chan Message

	// Unsubscribe tears the binding down on the broker.
	Unsubscribe() error
}

// Conn is an established broker connection.
type Conn interface {
	// Subscribe declares a subscription to the given destination.
	Subscribe(destination string) (Subscription, error)

	// Close deactivates the connection.
	Close() error
}

// Dialer establishes broker connections. The production implementation
// is STOMPDialer; tests substitute a fake.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// LiveSink receives notifications parsed from inbound frames. The feed
// store implements this.
type LiveSink interface {
	IngestLive(ctx context.Context, n model.Notification)
}
