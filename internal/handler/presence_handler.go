package handler

import (
	"net/http"
	"strconv"
	"time"

	"parley/internal/middleware"
	"parley/internal/service"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	statuses *service.StatusService
}

func NewPresenceHandler(statuses *service.StatusService) *PresenceHandler {
	return &PresenceHandler{statuses: statuses}
}

// Heartbeat is the high-frequency client activity ping. It only touches the
// cache and the pending set, so it answers immediately and never fails the
// caller on cache trouble.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Status       string     `json:"status" binding:"required,oneof=ACTIVE INACTIVE_TAB PRIVATE_DISABLED AWAY INCOGNITO"`
		LastActivity *time.Time `json:"last_activity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.statuses.Update(c.Request.Context(), userID, req.Status, req.LastActivity)
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

func (h *PresenceHandler) GetMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	view, err := h.statuses.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *PresenceHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	view, err := h.statuses.Get(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetBatch resolves statuses for a list of users in one round trip; cache
// misses inside collapse into a single durable query.
func (h *PresenceHandler) GetBatch(c *gin.Context) {
	var req struct {
		UserIDs []uint `json:"user_ids" binding:"required,min=1,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	views, err := h.statuses.GetMany(c.Request.Context(), req.UserIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": views})
}
