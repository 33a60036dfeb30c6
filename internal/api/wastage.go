package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brigade/internal/models"
	"brigade/internal/store"
)

type wastageRequest struct {
	ItemName     string               `json:"itemName" binding:"required"`
	Quantity     float64              `json:"quantity" binding:"required,gt=0"`
	Unit         string               `json:"unit" binding:"required"`
	Reason       models.WastageReason `json:"reason"`
	CostEstimate float64              `json:"costEstimate" binding:"gte=0"`
}

func (s *Server) createWastage(c *gin.Context) {
	var req wastageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Reason == "" {
		req.Reason = models.WasteOther
	}
	if !models.KnownWastageReason(req.Reason) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown wastage reason"})
		return
	}

	entry := &models.WastageEntry{
		ID:           uuid.NewString(),
		ItemName:     req.ItemName,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Reason:       req.Reason,
		CostEstimate: req.CostEstimate,
		RecordedBy:   claimsFrom(c).Actor(),
		RecordedAt:   s.now().UTC(),
	}
	if err := tenantFrom(c).Store.Wastage().Create(c.Request.Context(), entry); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// parseTimeParam accepts RFC3339 or a bare day. A day used as an upper
// bound covers that whole day.
func parseTimeParam(raw string, endOfDay bool) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	t, err := time.Parse(models.DayFormat, raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

func (s *Server) listWastage(c *gin.Context) {
	from, ok := parseTimeParam(c.Query("from"), false)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return
	}
	to, ok := parseTimeParam(c.Query("to"), true)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return
	}

	f := store.WastageFilter{From: from, To: to, Reason: models.WastageReason(c.Query("reason"))}
	entries, err := tenantFrom(c).Store.Wastage().List(c.Request.Context(), f)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if entries == nil {
		entries = []models.WastageEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) wastageSummary(c *gin.Context) {
	from, ok := parseTimeParam(c.Query("from"), false)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return
	}
	to, ok := parseTimeParam(c.Query("to"), true)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return
	}

	rows, err := tenantFrom(c).Store.Wastage().Summary(c.Request.Context(), from, to)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if rows == nil {
		rows = []models.WastageSummary{}
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) deleteWastage(c *gin.Context) {
	if err := tenantFrom(c).Store.Wastage().Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "wastage entry deleted"})
}
