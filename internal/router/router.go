package router

import (
	"time"

	"parley/config"
	"parley/internal/cache"
	"parley/internal/domain"
	"parley/internal/handler"
	"parley/internal/middleware"
	"parley/internal/repository"
	"parley/internal/service"
	"parley/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Engine wires repositories, services and handlers and returns the gin
// engine together with the background jobs main is expected to run.
type Engine struct {
	Gin     *gin.Engine
	Flusher *service.Flusher
	Reaper  *service.Reaper
	Hub     *ws.Hub
}

func Setup(cfg *config.Config, db *gorm.DB, store cache.Store) *Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(300, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	statusRepo := repository.NewStatusRepository(db)

	// Hub first; its authorizer is installed once services exist.
	hub := ws.NewHub()

	// Services
	notifier := service.NewNotifier(hub, userRepo)
	statusSvc := service.NewStatusService(store, statusRepo, notifier, cfg.Presence.StatusTTL)
	roomSvc := service.NewRoomService(db, roomRepo, membershipRepo, userRepo, notifier)
	authorizer := service.NewChannelAuthorizer(userRepo, roomRepo, membershipRepo, statusSvc)
	hub.SetAuthorizer(authorizer.Authorize)
	flusher := service.NewFlusher(store, statusRepo, cfg.Presence.FlushInterval, cfg.Presence.FlushChunkSize)
	reaper := service.NewReaper(membershipRepo, notifier, cfg.Presence.ReapInterval, cfg.Presence.InactivityThreshold)

	// Handlers
	presenceHandler := handler.NewPresenceHandler(statusSvc)
	roomHandler := handler.NewRoomHandler(roomRepo, membershipRepo, userRepo, roomSvc, statusSvc, hub)
	adminHandler := handler.NewAdminHandler(roomSvc)
	broadcastAuthHandler := handler.NewBroadcastAuthHandler(authorizer)

	heartbeatLimiter := middleware.NewInMemoryRateLimiter(cfg.Presence.HeartbeatLimit, cfg.Presence.HeartbeatWindow)

	api := r.Group("/api/v1")
	authed := api.Group("")
	authed.Use(middleware.AuthRequired(&cfg.JWT))

	presence := authed.Group("/presence")
	presence.POST("/heartbeat", middleware.RateLimitByUser(heartbeatLimiter), presenceHandler.Heartbeat)
	presence.GET("/me", presenceHandler.GetMine)
	presence.POST("/statuses", presenceHandler.GetBatch)
	authed.GET("/users/:id/status", presenceHandler.GetUser)

	rooms := authed.Group("/rooms")
	rooms.GET("", roomHandler.List)
	rooms.GET("/:id", roomHandler.Get)
	rooms.GET("/:id/members", roomHandler.Members)
	rooms.POST("/:id/join", roomHandler.Join)
	rooms.POST("/:id/leave", roomHandler.Leave)
	rooms.POST("/:id/messages", roomHandler.SendMessage)
	rooms.POST("", middleware.RequireRole(domain.RoleAdmin), roomHandler.Create)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(domain.RoleAdmin))
	admin.POST("/rooms/:id/move", adminHandler.MoveUser)
	admin.POST("/rooms/:id/kick", adminHandler.KickUser)
	admin.POST("/users/:id/ban", adminHandler.BanUser)

	authed.POST("/broadcasting/auth", broadcastAuthHandler.Auth)

	r.GET("/ws", ws.Serve(&cfg.JWT, hub))

	return &Engine{Gin: r, Flusher: flusher, Reaper: reaper, Hub: hub}
}
