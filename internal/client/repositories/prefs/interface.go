package prefs

import "context"

// Repository is a durable string key-value store kept on the device.
type Repository interface {
	// Get returns the stored value; found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// SetMany upserts all pairs atomically.
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
