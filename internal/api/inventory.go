package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brigade/internal/live"
	"brigade/internal/models"
	"brigade/internal/store"
)

func (s *Server) listSheets(c *gin.Context) {
	sheets, err := tenantFrom(c).Store.Sheets().List(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if sheets == nil {
		sheets = []models.InventorySheet{}
	}
	c.JSON(http.StatusOK, sheets)
}

func (s *Server) getSheet(c *gin.Context) {
	sheet, err := tenantFrom(c).Store.Sheets().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

type createSheetRequest struct {
	Name  string             `json:"name" binding:"required"`
	Area  string             `json:"area"`
	Items []models.SheetItem `json:"items"`
}

func (s *Server) createSheet(c *gin.Context) {
	var req createSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := s.now().UTC()
	sheet := &models.InventorySheet{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Area:      req.Area,
		Status:    models.SheetOpen,
		Items:     req.Items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sheet.Items == nil {
		sheet.Items = []models.SheetItem{}
	}
	if err := tenantFrom(c).Store.Sheets().Create(c.Request.Context(), sheet); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sheet)
}

// respondLocked answers 423 with the current holder so the client can
// show who is editing.
func (s *Server) respondLocked(c *gin.Context, sheet *models.InventorySheet) {
	s.metrics.LockConflicts.WithLabelValues(tenantFrom(c).Slug).Inc()
	body := gin.H{"error": "sheet is locked"}
	if sheet != nil && sheet.LockedBy != nil {
		body["lockedBy"] = sheet.LockedBy
		body["lockedAt"] = sheet.LockedAt
	}
	c.JSON(http.StatusLocked, body)
}

type replaceItemsRequest struct {
	Items []models.SheetItem `json:"items" binding:"required"`
}

func (s *Server) replaceSheetItems(c *gin.Context) {
	var req replaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := tenantFrom(c)
	by := claimsFrom(c).Actor()
	sheet, err := t.Store.Sheets().ReplaceItems(c.Request.Context(), c.Param("id"), req.Items, by, s.now().UTC())
	if errors.Is(err, store.ErrLocked) {
		s.respondLocked(c, sheet)
		return
	}
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Broadcast(t.Slug, live.Event{Type: live.EventSheetUpdated, SheetID: sheet.ID, By: by.Name})
	c.JSON(http.StatusOK, sheet)
}

func (s *Server) lockSheet(c *gin.Context) {
	t := tenantFrom(c)
	by := claimsFrom(c).Actor()
	sheet, err := t.Store.Sheets().Lock(c.Request.Context(), c.Param("id"), by, s.now().UTC())
	if errors.Is(err, store.ErrLocked) {
		s.respondLocked(c, sheet)
		return
	}
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Broadcast(t.Slug, live.Event{Type: live.EventSheetLocked, SheetID: sheet.ID, By: by.Name})
	c.JSON(http.StatusOK, sheet)
}

func (s *Server) unlockSheet(c *gin.Context) {
	t := tenantFrom(c)
	claims := claimsFrom(c)

	force := c.Query("force") == "true"
	if force && claims.Role != models.RoleManager {
		c.JSON(http.StatusForbidden, gin.H{"error": "manager role required to force-unlock"})
		return
	}

	sheet, err := t.Store.Sheets().Unlock(c.Request.Context(), c.Param("id"), claims.Actor(), force, s.now().UTC())
	if errors.Is(err, store.ErrLocked) {
		s.respondLocked(c, sheet)
		return
	}
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Broadcast(t.Slug, live.Event{Type: live.EventSheetUnlocked, SheetID: sheet.ID, By: claims.Name})
	c.JSON(http.StatusOK, sheet)
}

type draftRequest struct {
	Values map[string]float64 `json:"values" binding:"required"`
}

// saveSheetDraft persists one user's scratch values. Drafts never touch
// the shared counts and do not require the lock.
func (s *Server) saveSheetDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	by := claimsFrom(c).Actor()
	err := tenantFrom(c).Store.Sheets().SaveDraft(c.Request.Context(), c.Param("id"), by, req.Values, s.now().UTC())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "draft saved"})
}

func (s *Server) submitSheet(c *gin.Context) {
	t := tenantFrom(c)
	by := claimsFrom(c).Actor()
	sheet, err := t.Store.Sheets().Submit(c.Request.Context(), c.Param("id"), by, s.now().UTC())
	if errors.Is(err, store.ErrLocked) {
		s.respondLocked(c, sheet)
		return
	}
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Broadcast(t.Slug, live.Event{Type: live.EventSheetUpdated, SheetID: sheet.ID, By: by.Name})
	c.JSON(http.StatusOK, sheet)
}
