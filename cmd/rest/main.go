package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-fitness-be/internal/bootstrap"
	"ai-fitness-be/internal/config"
	"ai-fitness-be/internal/server"
	"ai-fitness-be/internal/tracer"

	"github.com/fatih/color"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Telemetry)
	defer shutdownTracer(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, cfg)
	defer container.Close()

	// 4. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		color.Yellow("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	color.Cyan("AI Fitness backend")
	color.Green("  env: %s  port: %s  tls: %v", cfg.App.Environment, cfg.App.Port, cfg.TLSEnabled())
	if cfg.App.JwtSecret == "" {
		color.Yellow("  JWT_SECRET not set: websocket sessions are anonymous")
	}

	// 6. Run Server
	if err := srv.Run(); err != nil {
		color.Red("Server error: %v", err)
		os.Exit(1)
	}
}
