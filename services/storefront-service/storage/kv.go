package storage

import "context"

// KV is the device-local key/value store. Its contents are advisory only;
// the remote services remain the source of truth.
//
// Get returns nil, nil when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
