package models

import (
	"strconv"
	"time"
)

// LockTTL is how long a sheet lock is honored before another user may
// take it over. The front-end shows the same 30 minute staleness cutoff.
const LockTTL = 30 * time.Minute

// SheetStatus represents the lifecycle state of an inventory sheet.
type SheetStatus string

const (
	SheetOpen      SheetStatus = "open"
	SheetSubmitted SheetStatus = "submitted"
)

// Actor identifies the Telegram user behind a write (lock holder,
// wastage recorder, sheet submitter).
type Actor struct {
	ID   int64  `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// DraftKey returns the map key under which the actor's draft values are
// stored. Mongo map keys must be strings.
func (a Actor) DraftKey() string {
	return strconv.FormatInt(a.ID, 10)
}

// SheetItem is a single counted line on an inventory sheet.
type SheetItem struct {
	Name     string  `bson:"name" json:"name"`
	Unit     string  `bson:"unit" json:"unit"`
	Expected float64 `bson:"expected" json:"expected"`
	Counted  float64 `bson:"counted" json:"counted"`
	Note     string  `bson:"note,omitempty" json:"note,omitempty"`
}

// SheetDraft holds one user's in-progress counted values, keyed by item
// name. Drafts survive reloads without touching the shared counts.
type SheetDraft struct {
	Values    map[string]float64 `bson:"values" json:"values"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// InventorySheet is a named count document. The lock fields implement the
// advisory per-sheet edit lock; drafts are per-user scratch values.
type InventorySheet struct {
	ID          string                `bson:"_id" json:"id"`
	Name        string                `bson:"name" json:"name"`
	Area        string                `bson:"area,omitempty" json:"area,omitempty"`
	Status      SheetStatus           `bson:"status" json:"status"`
	Items       []SheetItem           `bson:"items" json:"items"`
	LockedBy    *Actor                `bson:"lockedBy,omitempty" json:"lockedBy,omitempty"`
	LockedAt    *time.Time            `bson:"lockedAt,omitempty" json:"lockedAt,omitempty"`
	Drafts      map[string]SheetDraft `bson:"drafts,omitempty" json:"drafts,omitempty"`
	SubmittedBy *Actor                `bson:"submittedBy,omitempty" json:"submittedBy,omitempty"`
	SubmittedAt *time.Time            `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
	CreatedAt   time.Time             `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time             `bson:"updatedAt" json:"updatedAt"`
}

// LockExpired reports whether the sheet's lock is older than LockTTL.
// An unlocked sheet is never expired.
func (s *InventorySheet) LockExpired(now time.Time) bool {
	if s.LockedBy == nil || s.LockedAt == nil {
		return false
	}
	return now.Sub(*s.LockedAt) > LockTTL
}

// LockedByOther reports whether a live lock is held by someone other than
// the given user.
func (s *InventorySheet) LockedByOther(userID int64, now time.Time) bool {
	if s.LockedBy == nil {
		return false
	}
	if s.LockedBy.ID == userID {
		return false
	}
	return !s.LockExpired(now)
}
