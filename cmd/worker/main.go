package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/microlearning/site-api/internal/app"
	"github.com/microlearning/site-api/internal/config"
	"github.com/microlearning/site-api/internal/pkg/logger"
	"github.com/microlearning/site-api/internal/worker"
)

func main() {
	log.Println("Starting Resend Sweep Worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(!cfg.Log.DisableRedaction)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer deps.Close()
	log.Printf("Contact store: %s, threshold: %s", cfg.Store.Type, cfg.Resend.Threshold())

	sweeper := worker.NewResendSweeper(deps.ResendService(), cfg.Resend.Interval())
	stopped := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(stopped)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down worker...")
	cancel()
	<-stopped
	log.Println("Worker stopped")
}
