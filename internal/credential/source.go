package credential

import "os"

// Source exposes the current user identity and bearer token. The
// notification pipeline only ever reads these values; issuing and
// refreshing them is the login flow's job.
type Source interface {
	// UserID returns the identifier of the signed-in user.
	UserID() (string, error)

	// Token returns the bearer token presented to the REST API and
	// the broker handshake.
	Token() (string, error)
}

// KeyringSource reads credentials from the system keyring under the
// keys written by the login flow.
type KeyringSource struct{}

// UserID returns the stored user identifier.
func (KeyringSource) UserID() (string, error) {
	return Get(KeyUserID)
}

// Token returns the stored bearer token.
func (KeyringSource) Token() (string, error) {
	return Get(KeyToken)
}

// Static is a fixed in-memory credential pair, used by tests and when
// credentials are supplied through the environment.
type Static struct {
	User   string
	Bearer string
}

// UserID returns the fixed user identifier.
func (s Static) UserID() (string, error) { return s.User, nil }

// Token returns the fixed bearer token.
func (s Static) Token() (string, error) { return s.Bearer, nil }

// FromEnv returns a Source backed by the SHOPFEED_USER_ID and
// SHOPFEED_TOKEN environment variables when both are set, falling back
// to the system keyring otherwise.
func FromEnv() Source {
	user := os.Getenv("SHOPFEED_USER_ID")
	token := os.Getenv("SHOPFEED_TOKEN")
	if user != "" && token != "" {
		return Static{User: user, Bearer: token}
	}
	return KeyringSource{}
}
