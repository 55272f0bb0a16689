// Package objectstore abstracts where session files live. Sessions reference
// their payload by file key; the store resolves a key to a fetchable URL and
// handles cleanup when sessions expire.
package objectstore

import (
	"context"
	"io"
	"time"
)

// Store resolves file keys to URLs and manages the underlying blobs.
type Store interface {
	// URL returns a URL from which the blob for key can be fetched. The URL
	// is valid for at least expiry.
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Put stores a blob under key.
	Put(ctx context.Context, key string, body io.Reader) error
	// Delete removes the blob for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
