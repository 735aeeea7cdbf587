package store

import "context"

// Backend abstracts the persistent store used by the services.
type Backend interface {
	Update(ctx context.Context, fn func(tx *Tx) error) error
	View(ctx context.Context, fn func(tx *Tx) error) error
	SchemaVersion(ctx context.Context) (int, error)
}

var _ Backend = (*Store)(nil)
