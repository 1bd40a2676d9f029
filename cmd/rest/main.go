package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-chat-session-be/internal/bootstrap"
	"ai-chat-session-be/internal/config"
	"ai-chat-session-be/internal/server"
	"ai-chat-session-be/internal/tracer"
	"ai-chat-session-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Auth.JwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	var gormDB *gorm.DB
	if cfg.Database.Driver == "postgres" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start Background Services
	go container.WebSocketHub.Run(ctx)

	log.Println("Background: Starting Usage Retry Consumer...")
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	if container.EventAuditService != nil {
		if err := container.EventAuditService.Start(); err != nil {
			log.Printf("Background Event Audit Error: %v", err)
		}
	}

	// 6. Run Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
