// Package api exposes the tenant-scoped REST surface consumed by the
// Mini App front-end, plus the Telegram webhook endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"brigade/internal/bot"
	"brigade/internal/live"
	"brigade/internal/models"
	"brigade/internal/monitoring"
	"brigade/internal/tenant"
)

// Bots is what the API needs from the bot manager. Nil disables bot
// integration (tests).
type Bots interface {
	HandleUpdate(ctx context.Context, t *tenant.Tenant, update tgbotapi.Update)
	SchedulePublished(ctx context.Context, slug string, shifts []models.Shift)
}

// Server holds the router and its dependencies.
type Server struct {
	router    *gin.Engine
	log       *zap.Logger
	registry  *tenant.Registry
	metrics   *monitoring.Metrics
	hub       *live.Hub
	bots      Bots
	jwtSecret string
	now       func() time.Time
}

// NewServer builds the router. All dependencies are required except bots.
func NewServer(log *zap.Logger, registry *tenant.Registry, metrics *monitoring.Metrics, hub *live.Hub, bots Bots, jwtSecret string) *Server {
	s := &Server{
		router:    gin.New(),
		log:       log,
		registry:  registry,
		metrics:   metrics,
		hub:       hub,
		bots:      bots,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
	s.router.Use(gin.Recovery(), s.requestLogger(), metrics.GinMiddleware())
	s.setupRoutes()
	return s
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.POST(bot.WebhookPath+"/:tenant", s.handleTelegramWebhook)

	v1 := s.router.Group("/api/v1", s.resolveTenant())
	{
		v1.POST("/auth/telegram", s.handleTelegramAuth)

		authed := v1.Group("", s.requireAuth())
		{
			authed.GET("/recipes", s.listRecipes)
			authed.GET("/recipes/:id", s.getRecipe)
			authed.POST("/recipes", s.createRecipe)
			authed.PUT("/recipes/:id", s.updateRecipe)
			authed.DELETE("/recipes/:id", s.requireManager(), s.deleteRecipe)
			authed.POST("/recipes/:id/scale", s.scaleRecipe)

			authed.GET("/inventory", s.listSheets)
			authed.GET("/inventory/:id", s.getSheet)
			authed.POST("/inventory", s.requireManager(), s.createSheet)
			authed.PUT("/inventory/:id", s.replaceSheetItems)
			authed.POST("/inventory/:id/lock", s.lockSheet)
			authed.POST("/inventory/:id/unlock", s.unlockSheet)
			authed.PUT("/inventory/:id/draft", s.saveSheetDraft)
			authed.POST("/inventory/:id/submit", s.submitSheet)

			authed.GET("/shifts", s.listShifts)
			authed.GET("/shifts/me", s.listMyShifts)
			authed.POST("/shifts", s.requireManager(), s.createShift)
			authed.PUT("/shifts/:id", s.requireManager(), s.updateShift)
			authed.DELETE("/shifts/:id", s.requireManager(), s.deleteShift)
			authed.POST("/shifts/publish", s.requireManager(), s.publishShifts)

			authed.POST("/wastage", s.createWastage)
			authed.GET("/wastage", s.listWastage)
			authed.GET("/wastage/summary", s.wastageSummary)
			authed.DELETE("/wastage/:id", s.requireManager(), s.deleteWastage)

			authed.GET("/events", s.serveEvents)
		}
	}
}

// handleTelegramWebhook receives one bot update. It always answers 200 so
// Telegram does not retry; processing failures are logged inside the
// dispatcher.
func (s *Server) handleTelegramWebhook(c *gin.Context) {
	slug := c.Param("tenant")
	t, ok := s.registry.Lookup(slug)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}
	if c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != t.WebhookSecret {
		c.JSON(http.StatusForbidden, gin.H{"error": "bad webhook secret"})
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
		return
	}
	if s.bots != nil {
		s.bots.HandleUpdate(c.Request.Context(), t, update)
	}
	c.Status(http.StatusOK)
}

// serveEvents upgrades to the live-update WebSocket. Browsers cannot set
// headers on WebSocket requests, so tenant and token arrive as query
// parameters here (the middlewares accept both forms).
func (s *Server) serveEvents(c *gin.Context) {
	t := tenantFrom(c)
	if err := s.hub.Serve(c.Writer, c.Request, t.Slug); err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("tenant", t.Slug), zap.Error(err))
	}
}
