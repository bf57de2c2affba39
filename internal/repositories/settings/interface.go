// Package settings is a small key/value store for local application state
// such as the remote sheet URL and the signed-in account.
package settings

import "context"

// Repository stores string values by key. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) (*string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error

	// Acquire takes the lease stored under key until the given epoch-ms
	// deadline. It succeeds when the key is absent or its deadline is not
	// after now.
	Acquire(ctx context.Context, key string, until, now int64) (bool, error)

	// Release drops the lease if it still holds the deadline set by Acquire.
	Release(ctx context.Context, key string, until int64) error
}
