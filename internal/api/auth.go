package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"brigade/internal/auth"
	"brigade/internal/models"
)

type telegramAuthRequest struct {
	InitData string `json:"initData" binding:"required"`
}

// handleTelegramAuth validates Mini App initData against the tenant's bot
// token, upserts the user, and issues a session token. Role comes from
// the tenant's configured manager list on every login, so demoting a
// manager is a config change.
func (s *Server) handleTelegramAuth(c *gin.Context) {
	t := tenantFrom(c)

	var req telegramAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := s.now().UTC()
	tgUser, err := auth.VerifyInitData(req.InitData, t.BotToken, now)
	if err != nil {
		s.log.Warn("initData rejected", zap.String("tenant", t.Slug), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid initData"})
		return
	}

	role := models.RoleStaff
	if t.IsManager(tgUser.ID) {
		role = models.RoleManager
	}
	user := &models.User{
		ID:         tgUser.ID,
		Username:   tgUser.Username,
		FirstName:  tgUser.FirstName,
		LastName:   tgUser.LastName,
		Role:       role,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := t.Store.Users().Upsert(c.Request.Context(), user); err != nil {
		s.respondStoreError(c, err)
		return
	}

	token, err := auth.IssueToken(s.jwtSecret, t.Slug, user, now)
	if err != nil {
		s.log.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":   user.ID,
			"name": user.DisplayName(),
			"role": user.Role,
		},
	})
}
