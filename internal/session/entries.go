package session

import "context"

// Entries is the persisted key-value surface the session needs. Lookup
// reports found=false for missing keys instead of an error.
type Entries interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
