package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parley/config"
	"parley/internal/cache"
	"parley/internal/database"
	"parley/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var store cache.Store
	if cfg.Redis.URL != "" {
		store, err = cache.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		log.Printf("[cache] redis status store at %s", cfg.Redis.URL)
	} else {
		store = cache.NewMemoryStore()
		log.Printf("[cache] REDIS_URL not set, using in-process status store")
	}
	defer store.Close()

	engine := router.Setup(cfg, db, store)

	jobCtx, stopJobs := context.WithCancel(context.Background())
	go engine.Flusher.Run(jobCtx)
	go engine.Reaper.Run(jobCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine.Gin,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	stopJobs()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	// Final flush so the durable mirror is as fresh as possible on exit.
	if n, err := engine.Flusher.FlushOnce(ctx); err != nil {
		log.Printf("final flush: %v", err)
	} else if n > 0 {
		log.Printf("final flush persisted %d statuses", n)
	}
	fmt.Println("server stopped")
}
