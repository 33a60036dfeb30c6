package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brigade/internal/live"
	"brigade/internal/models"
	"brigade/internal/store"
)

func (s *Server) listShifts(c *gin.Context) {
	claims := claimsFrom(c)
	var staffID int64
	if raw := c.Query("staff"); raw != "" {
		var err error
		if staffID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff id"})
			return
		}
	}
	f := store.ShiftFilter{
		From:    c.Query("from"),
		To:      c.Query("to"),
		StaffID: staffID,
		// Staff only see the published schedule; managers see drafts too.
		PublishedOnly: claims.Role != models.RoleManager,
	}
	shifts, err := tenantFrom(c).Store.Shifts().List(c.Request.Context(), f)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if shifts == nil {
		shifts = []models.Shift{}
	}
	c.JSON(http.StatusOK, shifts)
}

func (s *Server) listMyShifts(c *gin.Context) {
	claims := claimsFrom(c)
	f := store.ShiftFilter{
		From:          s.now().UTC().Format(models.DayFormat),
		StaffID:       claims.UserID,
		PublishedOnly: true,
	}
	shifts, err := tenantFrom(c).Store.Shifts().List(c.Request.Context(), f)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if shifts == nil {
		shifts = []models.Shift{}
	}
	c.JSON(http.StatusOK, shifts)
}

type shiftRequest struct {
	StaffID   int64  `json:"staffId" binding:"required"`
	StaffName string `json:"staffName" binding:"required"`
	Role      string `json:"role"`
	Station   string `json:"station"`
	Day       string `json:"day" binding:"required"`
	Start     string `json:"start" binding:"required"`
	End       string `json:"end" binding:"required"`
	Notes     string `json:"notes"`
}

func (r *shiftRequest) apply(shift *models.Shift) {
	shift.StaffID = r.StaffID
	shift.StaffName = r.StaffName
	shift.Role = r.Role
	shift.Station = r.Station
	shift.Day = r.Day
	shift.Start = r.Start
	shift.End = r.End
	shift.Notes = r.Notes
}

func (s *Server) createShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := s.now().UTC()
	shift := &models.Shift{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	req.apply(shift)
	if err := shift.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := tenantFrom(c).Store.Shifts().Create(c.Request.Context(), shift); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shift)
}

func (s *Server) updateShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shifts := tenantFrom(c).Store.Shifts()
	shift, err := shifts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	req.apply(shift)
	if err := shift.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Editing a published shift unpublishes it until the next publish.
	shift.Published = false
	shift.UpdatedAt = s.now().UTC()

	if err := shifts.Update(c.Request.Context(), shift); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

func (s *Server) deleteShift(c *gin.Context) {
	if err := tenantFrom(c).Store.Shifts().Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "shift deleted"})
}

// publishShifts flips the published flag on a date range and notifies the
// affected staff through the tenant's bot.
func (s *Server) publishShifts(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}
	if _, err := time.Parse(models.DayFormat, from); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from day"})
		return
	}
	if _, err := time.Parse(models.DayFormat, to); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to day"})
		return
	}

	t := tenantFrom(c)
	shifts, err := t.Store.Shifts().Publish(c.Request.Context(), from, to, s.now().UTC())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	if s.bots != nil && len(shifts) > 0 {
		// Notification outlives the request; failures are logged by the
		// bot manager.
		go s.bots.SchedulePublished(context.WithoutCancel(c.Request.Context()), t.Slug, shifts)
	}
	s.hub.Broadcast(t.Slug, live.Event{Type: live.EventSchedulePublished, By: claimsFrom(c).Name})

	c.JSON(http.StatusOK, gin.H{"published": len(shifts), "shifts": shifts})
}
