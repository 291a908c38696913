package session

// Repo defines the interface for persisted credential storage. Exactly one
// set of credentials exists at a time; it is read once at restore and
// written only by login and logout.
type Repo interface {
	// Read returns the persisted credentials, or ErrNoCredentials when
	// nothing has been stored.
	Read() (*Credentials, error)

	// Write replaces the persisted credentials.
	Write(creds *Credentials) error

	// Clear removes the persisted credentials. Clearing an empty store is
	// not an error.
	Clear() error
}
