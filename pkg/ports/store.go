package ports

import "context"

// KVStore is the abstract key/value backing of the Progress Store.
// Writes are last-write-wins.
type KVStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrProgressNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// KeyLister is implemented by stores that can enumerate their keys.
// It backs introspection commands such as 'storyboard progress ls'.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}
