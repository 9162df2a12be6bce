package handler

import (
	"net/http"
	"strconv"

	"parley/internal/domain"
	"parley/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler drives the same transfer paths as user-initiated actions,
// just on behalf of someone else.
type AdminHandler struct {
	roomSvc *service.RoomService
}

func NewAdminHandler(roomSvc *service.RoomService) *AdminHandler {
	return &AdminHandler{roomSvc: roomSvc}
}

// MoveUser places a user in the target room, detaching them from wherever
// they were.
func (h *AdminHandler) MoveUser(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.roomSvc.EnsureMembership(c.Request.Context(), req.UserID, roomID, service.JoinOptions{})
	if err != nil {
		joinError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}

func (h *AdminHandler) KickUser(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.roomSvc.RemoveMembership(c.Request.Context(), req.UserID, roomID, domain.RemoveReasonKick); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "kick failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// BanUser marks the user banned and force-detaches them; the ban notice
// still reaches them on their private channel.
func (h *AdminHandler) BanUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := uint(id)
	if err := h.roomSvc.BanUser(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ban failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
