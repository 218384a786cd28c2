// Package store defines the datastore collaborator the engine talks to:
// document CRUD, the range queries the admission pipeline reads, and a
// per-collection change-notification primitive feeding the fan-out.
package store

import (
	"context"
	"errors"

	"thangd/models"
)

// ErrNotFound is returned by point lookups for unknown ids.
var ErrNotFound = errors.New("store: not found")

type Collection string

const (
	CollThangs   Collection = "thangs"
	CollBookings Collection = "bookings"
)

type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeUpdate ChangeKind = "update"
	ChangeRemove ChangeKind = "remove"
)

// Change is a normalized upstream mutation event. Add/update events carry the
// full document; remove events carry at least the identifier (soft deletes
// still carry the document, hard removals may not).
type Change struct {
	Kind    ChangeKind      `json:"kind"`
	ID      string          `json:"id"`
	Thang   *models.Thang   `json:"thang,omitempty"`
	Booking *models.Booking `json:"booking,omitempty"`
}

type ThangStore interface {
	// Get returns the document regardless of its deleted flag.
	Get(ctx context.Context, id string) (*models.Thang, error)
	Insert(ctx context.Context, t *models.Thang) error
	Replace(ctx context.Context, t *models.Thang) error
	// AddUser adds userID to the thang's user set; set semantics, idempotent.
	AddUser(ctx context.Context, thangID, userID string) error
	// SoftDelete flips the deleted flag and reports documents affected
	// (0 for unknown or already-deleted ids).
	SoftDelete(ctx context.Context, id string) (int64, error)
	ByOwner(ctx context.Context, userID string) ([]models.Thang, error)
}

type BookingStore interface {
	Get(ctx context.Context, id string) (*models.Booking, error)
	Insert(ctx context.Context, b *models.Booking) error
	SoftDelete(ctx context.Context, id string) (int64, error)
	// InInterval returns non-deleted bookings on the thang intersecting
	// [from, to) under half-open semantics.
	InInterval(ctx context.Context, thangID string, from, to int64) ([]models.Booking, error)
	// ForUserFrom returns the user's non-deleted bookings on the thang
	// starting at or after the given instant.
	ForUserFrom(ctx context.Context, thangID, userID string, from int64) ([]models.Booking, error)
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
}

// Store bundles the collections plus the change-notification primitive.
// Watch opens one upstream stream for the collection; the returned channel
// closes when ctx is cancelled or the stream fails.
type Store interface {
	Thangs() ThangStore
	Bookings() BookingStore
	Users() UserStore
	Watch(ctx context.Context, coll Collection) (<-chan Change, error)
}
