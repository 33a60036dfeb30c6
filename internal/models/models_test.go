package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaledIngredients(t *testing.T) {
	r := Recipe{
		Servings: 4,
		Ingredients: []Ingredient{
			{Name: "Beef", Quantity: 1.2, Unit: "kg"},
			{Name: "Wine", Quantity: 750, Unit: "ml"},
		},
	}

	scaled := r.ScaledIngredients(6)
	require.Len(t, scaled, 2)
	assert.InDelta(t, 1.8, scaled[0].Quantity, 1e-9)
	assert.InDelta(t, 1125, scaled[1].Quantity, 1e-9)

	// Original quantities untouched.
	assert.InDelta(t, 1.2, r.Ingredients[0].Quantity, 1e-9)

	// Nonsense servings fall back to the original list.
	assert.Equal(t, r.Ingredients, r.ScaledIngredients(0))
}

func TestSheetLockPredicates(t *testing.T) {
	now := time.Now()
	fresh := now.Add(-5 * time.Minute)
	stale := now.Add(-LockTTL - time.Minute)

	sheet := InventorySheet{}
	assert.False(t, sheet.LockExpired(now))
	assert.False(t, sheet.LockedByOther(1, now))

	sheet.LockedBy = &Actor{ID: 1, Name: "Alice"}
	sheet.LockedAt = &fresh
	assert.False(t, sheet.LockExpired(now))
	assert.False(t, sheet.LockedByOther(1, now))
	assert.True(t, sheet.LockedByOther(2, now))

	sheet.LockedAt = &stale
	assert.True(t, sheet.LockExpired(now))
	assert.False(t, sheet.LockedByOther(2, now))
}

func TestShiftValidate(t *testing.T) {
	valid := Shift{StaffID: 1, Day: "2026-09-01", Start: "08:00", End: "16:00"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		mutil func(*Shift)
	}{
		{"no staff", func(s *Shift) { s.StaffID = 0 }},
		{"bad day", func(s *Shift) { s.Day = "01/09/2026" }},
		{"bad start", func(s *Shift) { s.Start = "8am" }},
		{"bad end", func(s *Shift) { s.End = "25:00" }},
		{"end before start", func(s *Shift) { s.Start = "16:00"; s.End = "08:00" }},
		{"zero length", func(s *Shift) { s.End = s.Start }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutil(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "Ada", (&User{FirstName: "Ada"}).DisplayName())
	assert.Equal(t, "@ada", (&User{Username: "ada"}).DisplayName())
	assert.Equal(t, "unknown", (&User{}).DisplayName())
}

func TestActorDraftKey(t *testing.T) {
	assert.Equal(t, "42", Actor{ID: 42}.DraftKey())
}
