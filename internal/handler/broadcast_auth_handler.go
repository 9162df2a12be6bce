package handler

import (
	"net/http"

	"parley/internal/middleware"
	"parley/internal/service"

	"github.com/gin-gonic/gin"
)

// BroadcastAuthHandler exposes the channel authorizer over HTTP for
// clients whose pub/sub transport performs an auth callback per channel
// subscription.
type BroadcastAuthHandler struct {
	authorizer *service.ChannelAuthorizer
}

func NewBroadcastAuthHandler(authorizer *service.ChannelAuthorizer) *BroadcastAuthHandler {
	return &BroadcastAuthHandler{authorizer: authorizer}
}

func (h *BroadcastAuthHandler) Auth(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		ChannelName string `json:"channel_name" binding:"required"`
		SocketID    string `json:"socket_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload, err := h.authorizer.Authorize(c.Request.Context(), userID, req.ChannelName)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "code": "CHANNEL_DENIED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel_data": payload})
}
