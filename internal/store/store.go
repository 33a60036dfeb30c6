// Package store defines the tenant-scoped persistence interfaces and the
// Mongo and in-memory implementations behind them. Handlers depend on the
// interfaces only; Mongo backs production, memory backs tests.
package store

import (
	"context"
	"errors"
	"time"

	"brigade/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLocked is returned when a sheet write loses to a live lock held
	// by another user.
	ErrLocked = errors.New("sheet locked")
	// ErrDuplicate is returned when a create collides on ID.
	ErrDuplicate = errors.New("duplicate id")
)

// RecipeFilter narrows a recipe list.
type RecipeFilter struct {
	Category string
	Tag      string
	// Query matches case-insensitively against recipe names.
	Query string
	// IncludeArchived also returns archived recipes.
	IncludeArchived bool
}

// ShiftFilter narrows a shift list. From/To are inclusive day bounds in
// YYYY-MM-DD; empty means unbounded. StaffID 0 means all staff.
type ShiftFilter struct {
	From          string
	To            string
	StaffID       int64
	PublishedOnly bool
}

// WastageFilter narrows a wastage list. Zero times mean unbounded.
type WastageFilter struct {
	From   time.Time
	To     time.Time
	Reason models.WastageReason
}

// Store bundles the collections of a single tenant.
type Store interface {
	Recipes() RecipeStore
	Sheets() SheetStore
	Shifts() ShiftStore
	Wastage() WastageStore
	Users() UserStore
}

// RecipeStore is CRUD over the recipes collection.
type RecipeStore interface {
	List(ctx context.Context, f RecipeFilter) ([]models.Recipe, error)
	Get(ctx context.Context, id string) (*models.Recipe, error)
	Create(ctx context.Context, r *models.Recipe) error
	Update(ctx context.Context, r *models.Recipe) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SheetStore manages inventory sheets, their advisory locks, and
// per-user drafts. Lock acquisition and locked-gated writes are single
// conditional updates; the TTL in models.LockTTL is enforced at
// acquisition time only.
type SheetStore interface {
	List(ctx context.Context) ([]models.InventorySheet, error)
	Get(ctx context.Context, id string) (*models.InventorySheet, error)
	Create(ctx context.Context, s *models.InventorySheet) error
	// ReplaceItems overwrites the counted items. Fails with ErrLocked if
	// another user holds a live lock; the returned sheet then reflects
	// the current holder.
	ReplaceItems(ctx context.Context, id string, items []models.SheetItem, by models.Actor, now time.Time) (*models.InventorySheet, error)
	// Lock acquires the advisory lock when the sheet is free, already
	// held by the requester, or the previous lock has expired. On
	// conflict it returns the current sheet and ErrLocked.
	Lock(ctx context.Context, id string, by models.Actor, now time.Time) (*models.InventorySheet, error)
	// Unlock releases the requester's lock. With force, any lock.
	Unlock(ctx context.Context, id string, by models.Actor, force bool, now time.Time) (*models.InventorySheet, error)
	SaveDraft(ctx context.Context, id string, by models.Actor, values map[string]float64, now time.Time) error
	// Submit marks the sheet submitted, clears the lock and the
	// submitter's draft.
	Submit(ctx context.Context, id string, by models.Actor, now time.Time) (*models.InventorySheet, error)
}

// ShiftStore is CRUD plus publish over the staff_shifts collection.
type ShiftStore interface {
	List(ctx context.Context, f ShiftFilter) ([]models.Shift, error)
	Get(ctx context.Context, id string) (*models.Shift, error)
	Create(ctx context.Context, s *models.Shift) error
	Update(ctx context.Context, s *models.Shift) error
	Delete(ctx context.Context, id string) error
	// Publish flips the published flag on every shift in the inclusive
	// day range and returns the affected shifts.
	Publish(ctx context.Context, from, to string, now time.Time) ([]models.Shift, error)
}

// WastageStore is append/list/summarize over wastage entries.
type WastageStore interface {
	Create(ctx context.Context, e *models.WastageEntry) error
	List(ctx context.Context, f WastageFilter) ([]models.WastageEntry, error)
	Summary(ctx context.Context, from, to time.Time) ([]models.WastageSummary, error)
	Delete(ctx context.Context, id string) error
}

// UserStore tracks the Telegram users of a tenant.
type UserStore interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	// Upsert inserts or refreshes a user, preserving CreatedAt and any
	// previously assigned role unless the incoming role is non-empty.
	Upsert(ctx context.Context, u *models.User) error
	List(ctx context.Context) ([]models.User, error)
}
