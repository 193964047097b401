package driven

// SecretStore holds credentials by key name.
// A missing key is a normal state: Get returns found=false and no error.
// Implementations must be safe for concurrent reads.
type SecretStore interface {
	// Get returns the value stored under key.
	Get(key string) (value string, found bool, err error)

	// Set stores value under key.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
