package ports

import "context"

// Persisted session entry names. Each value is a JSON document.
const (
	EntryUser        = "user"
	EntryCredentials = "credentials"
)

// SessionRepository is the durable key-value storage behind a session store.
// A key groups the entries of one session (a browser session id, or a CLI
// profile name).
type SessionRepository interface {
	// Load returns every entry stored under key. A missing key yields an
	// empty map and no error.
	Load(ctx context.Context, key string) (map[string]string, error)
	// Save writes entries under key, replacing existing values.
	Save(ctx context.Context, key string, entries map[string]string) error
	// Remove deletes the named entries. Removing absent entries is not an error.
	Remove(ctx context.Context, key string, names ...string) error
}

// CredentialSealer protects the credentials entry at rest. The session key
// is passed as associated data, so a sealed entry copied under another key
// does not open.
type CredentialSealer interface {
	Seal(plaintext, associated []byte) (string, error)
	Open(sealed string, associated []byte) ([]byte, error)
}
