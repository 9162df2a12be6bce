package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"parley/internal/domain"
	"parley/internal/middleware"
	"parley/internal/models"
	"parley/internal/repository"
	"parley/internal/service"
	"parley/internal/ws"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type RoomHandler struct {
	rooms       *repository.RoomRepository
	memberships *repository.MembershipRepository
	users       *repository.UserRepository
	roomSvc     *service.RoomService
	statuses    *service.StatusService
	hub         *ws.Hub
}

func NewRoomHandler(rooms *repository.RoomRepository, memberships *repository.MembershipRepository, users *repository.UserRepository, roomSvc *service.RoomService, statuses *service.StatusService, hub *ws.Hub) *RoomHandler {
	return &RoomHandler{rooms: rooms, memberships: memberships, users: users, roomSvc: roomSvc, statuses: statuses, hub: hub}
}

// joinError maps transfer coordinator errors to HTTP responses with a
// machine-readable reason code.
func joinError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "ROOM_NOT_FOUND"})
	case errors.Is(err, service.ErrRoomFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "ROOM_FULL"})
	case errors.Is(err, service.ErrWrongPassword):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "WRONG_PASSWORD"})
	case errors.Is(err, service.ErrBanned):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "BANNED"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

func roomIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return 0, false
	}
	return uint(id), true
}

func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.rooms.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// Get returns room contents. Fetching a room is a presence trigger: the
// viewer is auto-joined (moving them out of any previous room) before the
// member list is rendered.
func (h *RoomHandler) Get(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	if _, err := h.roomSvc.EnsureMembership(c.Request.Context(), userID, roomID, service.JoinOptions{
		Password: c.Query("password"),
	}); err != nil {
		joinError(c, err)
		return
	}
	room, err := h.rooms.GetByID(roomID)
	if err != nil {
		joinError(c, service.ErrRoomNotFound)
		return
	}
	members, err := h.roomMembers(c, roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "member list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "members": members})
}

func (h *RoomHandler) Members(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	members, err := h.roomMembers(c, roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "member list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// roomMembers joins membership rows with profile and live status; the
// status read is one batched cache lookup with a single durable fallback.
func (h *RoomHandler) roomMembers(c *gin.Context, roomID uint) ([]gin.H, error) {
	ms, err := h.memberships.ListByRoom(roomID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(ms))
	for i, m := range ms {
		ids[i] = m.UserID
	}
	users, err := h.users.GetManyByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	statuses, err := h.statuses.GetMany(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}
	out := make([]gin.H, 0, len(ms))
	for _, m := range ms {
		entry := gin.H{
			"room_id":       m.RoomID,
			"user_id":       m.UserID,
			"role":          m.Role,
			"last_activity": m.LastActivity,
		}
		if u, ok := byID[m.UserID]; ok {
			entry["user"] = u.PublicProfile()
		}
		if v, ok := statuses[m.UserID]; ok {
			entry["status"] = v.Status
		}
		out = append(out, entry)
	}
	return out, nil
}

func (h *RoomHandler) Join(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	var req struct {
		Password         string `json:"password"`
		PreviousRoomHint uint   `json:"previous_room_hint"`
	}
	_ = c.ShouldBindJSON(&req) // body optional for public rooms
	m, err := h.roomSvc.EnsureMembership(c.Request.Context(), userID, roomID, service.JoinOptions{
		Password:         req.Password,
		PreviousRoomHint: req.PreviousRoomHint,
	})
	if err != nil {
		joinError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}

func (h *RoomHandler) Leave(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	if err := h.roomSvc.RemoveMembership(c.Request.Context(), userID, roomID, domain.RemoveReasonLeave); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leave failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SendMessage relays a chat line to the room channel. Sending while not a
// member auto-joins (public rooms only, since no password travels here).
// Message content is not persisted.
func (h *RoomHandler) SendMessage(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	var req struct {
		Body string `json:"body" binding:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.roomSvc.EnsureMembership(c.Request.Context(), userID, roomID, service.JoinOptions{}); err != nil {
		joinError(c, err)
		return
	}
	h.roomSvc.TouchActivity(c.Request.Context(), userID, roomID)
	user, err := h.users.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sender lookup failed"})
		return
	}
	h.hub.Publish(domain.RoomChannel(roomID), "message", gin.H{
		"room_id": roomID,
		"user":    user.PublicProfile(),
		"body":    req.Body,
		"sent_at": time.Now(),
	}, 0)
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// Create makes a new room. Admin-only; the password, when present, is
// stored as a bcrypt hash.
func (h *RoomHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Name        string `json:"name" binding:"required,min=2,max=64"`
		Description string `json:"description" binding:"max=255"`
		Public      *bool  `json:"public"`
		Password    string `json:"password"`
		MaxCount    int    `json:"max_count" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room := &models.Room{
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public == nil || *req.Public,
		MaxCount:    req.MaxCount,
		OwnerID:     &userID,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
			return
		}
		room.PasswordHash = string(hash)
	}
	if err := h.rooms.Create(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room})
}
