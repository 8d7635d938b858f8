package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cellfade/internal/config"
	"cellfade/internal/container"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Server().ListenAndServe(ctx, ":"+cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
