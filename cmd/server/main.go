package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playmatatu/cuetable/internal/admin"
	"github.com/playmatatu/cuetable/internal/api"
	"github.com/playmatatu/cuetable/internal/config"
	"github.com/playmatatu/cuetable/internal/database"
	"github.com/playmatatu/cuetable/internal/game"
	"github.com/playmatatu/cuetable/internal/migrations"
	"github.com/playmatatu/cuetable/internal/redis"
	"github.com/playmatatu/cuetable/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Session history is optional
	db, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if db == nil {
		log.Println("[DB] DATABASE_URL not set; session history and admin endpoints disabled")
	} else {
		defer db.Close()

		if os.Getenv("MIGRATE_ON_START") == "true" {
			log.Println("[MIGRATE] Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, os.Getenv("MIGRATIONS_DIR")); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
			log.Printf("[CONFIG] Runtime overrides not applied: %v", err)
		}
	}

	// Redis enables snapshots, shared idle tracking and cross-instance events
	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if rdb == nil {
		log.Println("[REDIS] REDIS_URL not set; running single-instance")
	} else {
		defer rdb.Close()
	}

	game.InitializeManager(db, rdb, cfg)

	ws.SetRedisClient(rdb)
	ws.StartEventSubscriber(ctx, ws.PracticeHub)

	sink := ws.NewSink(ws.PracticeHub)
	game.StartFrameWorker(ctx, game.Manager, sink)
	game.StartIdleWorker(ctx, game.Manager, sink)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, db, rdb, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting cuetable server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	for _, s := range game.Manager.ActiveSessions() {
		game.Manager.SaveFinalSession(s)
	}
}
