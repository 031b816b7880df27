// Package session keeps one task list per browser session.
//
// A Store holds the encoded task list under the session ID and forgets it once
// the session has been idle for longer than its TTL. The Manager ties a Store to
// the session cookie of an HTTP request.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Store.Load when a session has no data or has expired.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 24 * time.Minute

// Store is the contract for session persistence. Data is opaque to the store.
type Store interface {
	// Load returns the data saved for id, or ErrNotFound.
	Load(ctx context.Context, id string) ([]byte, error)

	// Save replaces the data for id and resets its idle timer.
	Save(ctx context.Context, id string, data []byte) error

	// Delete forgets id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// GC removes expired sessions and returns how many were removed.
	GC(ctx context.Context) (int, error)

	// EnsureTable prepares the backing storage.
	EnsureTable(ctx context.Context) error
}

// NewID returns a fresh session ID.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ValidID reports whether id looks like an ID issued by NewID.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}
