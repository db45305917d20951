package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/microlearning/site-api/internal/api"
	"github.com/microlearning/site-api/internal/app"
	"github.com/microlearning/site-api/internal/config"
	"github.com/microlearning/site-api/internal/pkg/logger"
)

// checkPortAvailable fails fast when another process already holds the port.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is not available: %w", addr, err)
	}
	return ln.Close()
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Site API (cmd/server/main.go)                             ║")
	log.Println("║  Contact form submissions and follow-up sweep trigger      ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(!cfg.Log.DisableRedaction)

	if err := checkPortAvailable(cfg.Server.Addr()); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: %s is available", cfg.Server.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer deps.Close()
	log.Printf("Contact store: %s, email provider: %s", cfg.Store.Type, cfg.Email.Provider)

	// Header/table init is repeatable. A failure here is not fatal: the
	// readiness probe reports the store until it recovers.
	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := deps.Store.EnsureSchema(initCtx); err != nil {
		log.Printf("Warning: contact store schema check failed: %v", err)
	}
	initCancel()

	if cfg.Resend.Token == "" {
		log.Println("Warning: RESEND_ROUTINE_TOKEN not set, /api/resend-confirmations is open")
	}
	if deps.Redis != nil {
		log.Println("Redis configured (distributed sweep lock enabled)")
	}

	handlers := api.NewHandlers(deps.ContactService(), deps.ResendService(), cfg.Resend.Token)
	health := api.NewHealthChecker(deps.Store, cfg.Store.Type, deps.Redis)
	router := api.SetupRoutes(handlers, health, cfg.Server.AllowedOrigins)
	server := api.NewServer(cfg.Server, router)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("Server is ready")

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
