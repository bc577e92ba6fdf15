package model

// Scope identifies which channel a notification was delivered on.
type Scope string

const (
	// ScopePersonal marks a notification delivered on the user's
	// private channel (or fetched from the user's history endpoint).
	ScopePersonal Scope = "PERSONAL"

	// ScopeGlobal marks a broadcast notification delivered to all
	// connected clients.
	ScopeGlobal Scope = "GLOBAL"
)

// Category is the server-assigned classification of a notification.
// It only drives icon and badge choice in the UI; the pipeline treats
// it as an opaque tag.
type Category string

const (
	CategoryOrder   Category = "ORDER"
	CategoryPost    Category = "POST"
	CategoryEvent   Category = "EVENT"
	CategoryReview  Category = "REVIEW"
	CategoryComment Category = "COMMENT"
)

// Notification is the unit of the notification feed. The same shape is
// used on the wire (REST snapshot and broker frames, field tags match
// the server's JSON) and in the persisted mirror.
type Notification struct {
	// ID is the server-assigned identifier. It is absent until the
	// origin assigns one; entries without an ID are never merged
	// against each other.
	ID *int64 `json:"id,omitempty"`

	// ClientKey is a locally generated key assigned on ingestion so
	// that entries without a server ID are still addressable. Never
	// sent to the server.
	ClientKey string `json:"clientKey,omitempty"`

	// Scope records which channel the notification arrived on.
	Scope Scope `json:"scope,omitempty"`

	// Category classifies the notification (use Category* constants).
	Category Category `json:"type,omitempty"`

	// Title is the short display headline.
	Title string `json:"title"`

	// Message is the display body text.
	Message string `json:"message"`

	// Route is an optional deep-link target consumed by the UI on tap.
	Route string `json:"screen,omitempty"`

	// Params holds deep-link parameters, passed through unmodified.
	// Values are whatever JSON the server sent; the pipeline never
	// inspects them.
	Params map[string]any `json:"params,omitempty"`

	// Date is the origin timestamp in ISO format. Used for display
	// only; feed ordering is arrival order, not timestamp order.
	Date string `json:"date,omitempty"`

	// Read reports whether the user has seen this notification.
	Read bool `json:"read"`

	// UserID is the target user for personal notifications, if the
	// server included one.
	UserID *int64 `json:"userId,omitempty"`
}

// HasID reports whether the server has assigned an identifier.
func (n Notification) HasID() bool {
	return n.ID != nil
}
