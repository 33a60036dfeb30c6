package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"brigade/internal/models"
)

func TestRetryAfterConflict(t *testing.T) {
	now := time.Now()
	held := &models.InventorySheet{
		ID:       "sheet-1",
		LockedBy: &models.Actor{ID: 1, Name: "Alice"},
		LockedAt: &now,
	}
	free := &models.InventorySheet{ID: "sheet-1"}

	// A lock-free snapshot right after a miss means the holder released in
	// between; retry once.
	assert.True(t, retryAfterConflict(free, 0))

	// A held snapshot is a genuine conflict.
	assert.False(t, retryAfterConflict(held, 0))

	// Never retry more than once.
	assert.False(t, retryAfterConflict(free, 1))
	assert.False(t, retryAfterConflict(nil, 0))
}
