package ports

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by Store.Get when no record exists for a key.
var ErrRecordNotFound = errors.New("record not found")

// Store is the Record Store contract backing challenges and sessions: point
// lookup, insert and delete keyed by opaque strings, with expiry-based
// automatic removal. Driver failures wrap core.ErrStoreUnavailable.
type Store interface {
	// Get retrieves the record stored under key, or ErrRecordNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Put stores a record under key. A positive ttl bounds its lifetime;
	// records are also expiry-checked by readers, so the ttl is a cleanup
	// aid rather than the source of truth.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the record under key and reports whether a record was
	// actually removed. The bool is what makes consume-once redemption
	// atomic: of two concurrent deletes, exactly one observes true.
	Delete(ctx context.Context, key string) (bool, error)
}
