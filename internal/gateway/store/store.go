package store

import (
	"context"
	"errors"

	"github.com/reposcope/reposcope/internal/gateway/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. The gateway only needs the user repository; everything
// else it serves is fetched from upstream per request.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by upstream numeric id.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// UpsertUser inserts or replaces the profile and token fields for the
	// user keyed by its upstream id. Called on every successful login; the
	// row's own atomicity is the only concurrency control needed.
	UpsertUser(ctx context.Context, u domain.User) error

	// UpdateUserToken persists refreshed token fields and bumps updated_at.
	UpdateUserToken(ctx context.Context, userID int64, upd domain.TokenUpdate) error
}
