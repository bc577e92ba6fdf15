package feed

import "github.com/nvhoang/shopfeed/internal/model"

// EventKind distinguishes a newly arrived notification from a change to
// existing state, so consumers can animate the two differently.
type EventKind int

const (
	// EventNew is dispatched when a live notification enters the feed.
	// Event.Notification carries the new entry.
	EventNew EventKind = iota

	// EventChanged is dispatched for every other mutation: snapshot
	// merge, mark-read, mark-all-read, and clear.
	EventChanged
)

// Event describes one feed mutation delivered to listeners.
type Event struct {
	Kind         EventKind
	Notification *model.Notification // set only for EventNew
	UnreadCount  int
}

// Listener receives feed mutation events. Listeners are invoked
// synchronously with the mutation, exactly once each.
type Listener func(Event)
