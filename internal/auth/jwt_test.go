package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brigade/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:        42,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      models.RoleManager,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := IssueToken("secret", "demo-kitchen", testUser(), time.Now())
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "demo-kitchen", claims.Tenant)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "Ada Lovelace", claims.Name)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.Equal(t, models.Actor{ID: 42, Name: "Ada Lovelace"}, claims.Actor())
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := IssueToken("secret", "demo-kitchen", testUser(), time.Now())
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := IssueToken("secret", "demo-kitchen", testUser(), time.Now().Add(-2*TokenTTL))
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("secret", "not-a-token")
	assert.Error(t, err)
}
